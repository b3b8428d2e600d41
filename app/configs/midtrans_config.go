package configs

import (
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// NewSnapClient returns a Snap client for env, or nil when no server key is
// configured (checkout then skips payment initiation).
func NewSnapClient(e ENV) *snap.Client {
	if e.MidtransServerKey == "" {
		return nil
	}

	environment := midtrans.Sandbox
	if e.AppEnv == "production" {
		environment = midtrans.Production
	}

	var client snap.Client
	client.New(e.MidtransServerKey, environment)
	return &client
}
