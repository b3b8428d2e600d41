package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rakhulsr/go-storefront/app/helpers"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/render"
)

const errMsgInvalidBody = "Invalid request body"

// statusFor mirrors the envelope's error kind as an HTTP status. Clients are
// expected to read the envelope, not the status.
func statusFor(kind string) int {
	switch services.ErrorKind(kind) {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respond[T any](rdr *render.Render, w http.ResponseWriter, res other.Result[T]) {
	status := http.StatusOK
	if !res.Success && res.Error != nil {
		status = statusFor(res.Error.Kind)
	}
	_ = rdr.JSON(w, status, res)
}

func validationFailure(rdr *render.Render, w http.ResponseWriter, message string) {
	_ = rdr.JSON(w, http.StatusBadRequest, other.Fail[struct{}](other.ErrorBody{
		Kind:    string(services.KindValidation),
		Message: message,
	}))
}

// decodeAndValidate reads a JSON body into dst and validates it, writing the
// failure response itself. It reports whether the handler should continue.
func decodeAndValidate(rdr *render.Render, v *validator.Validate, w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		validationFailure(rdr, w, errMsgInvalidBody)
		return false
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			validationFailure(rdr, w, helpers.ValidationMessage(verrs))
			return false
		}
		validationFailure(rdr, w, errMsgInvalidBody)
		return false
	}
	return true
}

func unknownFailure() other.Result[struct{}] {
	return other.Fail[struct{}](other.ErrorBody{
		Kind:    string(services.KindUnknown),
		Message: services.ErrMsgSomethingWentWrong,
	})
}
