package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

// PaymentSession is what the customer needs to pay for an order.
type PaymentSession struct {
	Token       string
	RedirectURL string
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, order *models.Order) (*PaymentSession, error)
}

// SnapGateway starts a Midtrans Snap transaction per order.
type SnapGateway struct {
	client    *snap.Client
	finishURL string
}

func NewSnapGateway(client *snap.Client, appURL string) *SnapGateway {
	return &SnapGateway{client: client, finishURL: appURL + "/checkout/finish"}
}

const midtransNameLimit = 50

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > midtransNameLimit {
		return string(r[:midtransNameLimit])
	}
	return name
}

// SnapRequest builds the Snap request for order. Item prices are whole units;
// any rounding difference against the grand total becomes an adjustment line so
// the item sum always equals the gross amount.
func SnapRequest(order *models.Order, finishURL string) *snap.Request {
	items := make([]midtrans.ItemDetails, 0, len(order.OrderItems)+3)
	for _, item := range order.OrderItems {
		items = append(items, midtrans.ItemDetails{
			ID:    item.ProductID,
			Name:  truncateName(item.ProductName),
			Price: item.Price.Round(0).IntPart(),
			Qty:   int32(item.Qty),
		})
	}
	if order.ShippingTotal.IsPositive() {
		items = append(items, midtrans.ItemDetails{
			ID:    "SHIPPING_FEE",
			Name:  "Shipping",
			Price: order.ShippingTotal.Round(0).IntPart(),
			Qty:   1,
		})
	}
	if order.TaxTotal.IsPositive() {
		items = append(items, midtrans.ItemDetails{
			ID:    "TAX",
			Name:  "Tax",
			Price: order.TaxTotal.Round(0).IntPart(),
			Qty:   1,
		})
	}

	gross := order.GrandTotal.Round(0)
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromInt(item.Price).Mul(decimal.NewFromInt32(item.Qty)))
	}
	if diff := gross.Sub(sum); !diff.IsZero() {
		items = append(items, midtrans.ItemDetails{
			ID:    "ADJUSTMENT",
			Name:  "Rounding adjustment",
			Price: diff.IntPart(),
			Qty:   1,
		})
	}

	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.OrderCode,
			GrossAmt: gross.IntPart(),
		},
		Items:           &items,
		EnabledPayments: snap.AllSnapPaymentType,
		Callbacks: &snap.Callbacks{
			Finish: finishURL + "?order_code=" + order.OrderCode,
		},
	}
}

func (g *SnapGateway) CreatePayment(ctx context.Context, order *models.Order) (*PaymentSession, error) {
	if g.client == nil {
		return nil, errors.New("midtrans snap client is not configured")
	}

	resp, merr := g.client.CreateTransaction(SnapRequest(order, g.finishURL))
	if merr != nil {
		return nil, fmt.Errorf("failed to initiate Midtrans transaction: %s", merr.Error())
	}
	if resp == nil || resp.Token == "" || resp.RedirectURL == "" {
		return nil, errors.New("midtrans transaction initiated but returned invalid response (missing redirect URL or token)")
	}

	return &PaymentSession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}
