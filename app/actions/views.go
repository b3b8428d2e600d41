package actions

import (
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/utils/format"
	"golang.org/x/text/currency"
)

func NewCartView(cart *models.Cart, unit currency.Unit) other.CartView {
	view := other.CartView{
		ID:            cart.ID,
		Items:         make([]other.CartItemView, 0, len(cart.CartItems)),
		ItemCount:     cart.TotalItems(),
		Subtotal:      cart.Subtotal,
		ShippingTotal: cart.ShippingTotal,
		TaxTotal:      cart.TaxTotal,
		GrandTotal:    cart.GrandTotal,
		Currency:      unit.String(),
		GrandTotalFmt: format.Money(cart.GrandTotal, unit),
	}

	for _, item := range cart.CartItems {
		view.Items = append(view.Items, other.CartItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.DisplayName(),
			Quantity:  item.Qty,
			UnitPrice: item.Price,
			LineTotal: item.LineTotal(),
		})
	}
	return view
}

func orderStatus(status int) string {
	switch status {
	case models.OrderStatusPending:
		return "pending"
	case models.OrderStatusPaid:
		return "paid"
	case models.OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func NewOrderView(order *models.Order) other.OrderView {
	view := other.OrderView{
		ID:            order.ID,
		OrderCode:     order.OrderCode,
		OrderDate:     order.OrderDate,
		Items:         make([]other.OrderItemView, 0, len(order.OrderItems)),
		Subtotal:      order.Subtotal,
		ShippingTotal: order.ShippingTotal,
		TaxTotal:      order.TaxTotal,
		GrandTotal:    order.GrandTotal,
		Currency:      order.Currency,
		Status:        orderStatus(order.Status),
		PaymentStatus: order.PaymentStatus,
		PaymentURL:    order.PaymentURL,
	}
	for _, item := range order.OrderItems {
		view.Items = append(view.Items, other.OrderItemView{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.ProductName,
			Quantity:  item.Qty,
			UnitPrice: item.Price,
			LineTotal: item.LineTotal,
		})
	}
	return view
}

func NewProductView(product *models.Product) other.ProductView {
	view := other.ProductView{
		ID:    product.ID,
		Name:  product.Name,
		Slug:  product.Slug,
		Price: product.Price,
		Stock: product.Stock,
	}
	for _, v := range product.Variants {
		view.Variants = append(view.Variants, other.VariantView{
			ID:    v.ID,
			Name:  v.Name,
			Price: v.Price,
			Stock: v.Stock,
		})
	}
	return view
}
