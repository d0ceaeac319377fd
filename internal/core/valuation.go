package core

// InvoiceTotals are the monetary figures derived from one invoice.
// They are recomputed on every read and never stored.
type InvoiceTotals struct {
	Subtotal       Amount   `json:"subtotal"`
	DiscountTotal  Amount   `json:"discountTotal"`
	TaxTotal       Amount   `json:"taxTotal"`
	ShippingAmount Amount   `json:"shipping"`
	GrandTotal     Amount   `json:"grandTotal"`
	DueAmount      Amount   `json:"dueAmount"`
	Split          TaxSplit `json:"split"`
}

// TaxSplit presents the tax total under the invoice's GST regime. It
// is informational: the components always sum to the tax total and
// never feed back into it.
type TaxSplit struct {
	CGST Amount `json:"cgst"`
	SGST Amount `json:"sgst"`
	IGST Amount `json:"igst"`
}

// ComputeInvoiceTotals values one invoice. Per line, in list order:
// line amount = qty × price, discount = line × disc%/100, tax =
// (line − discount) × rate%/100. The grand total is subtotal −
// discounts + tax + shipping, and the due amount is the grand total
// less the amount paid, floored at zero (overpayment is absorbed, not
// reported as credit).
//
// The function is pure and total: malformed numeric inputs have
// already been coerced to zero by Amount, an invoice with no items
// yields all-zero totals, and the same invoice always produces the
// same result.
func ComputeInvoiceTotals(inv Invoice) InvoiceTotals {
	var subtotal, discountTotal, taxTotal Amount
	for _, it := range inv.Items {
		line := it.Quantity.Mul(it.UnitPrice)
		discount := line.Percent(it.DiscountPercent)
		taxable := line.Sub(discount)
		tax := taxable.Percent(it.TaxRatePercent)

		subtotal = subtotal.Add(line)
		discountTotal = discountTotal.Add(discount)
		taxTotal = taxTotal.Add(tax)
	}

	grand := subtotal.Sub(discountTotal).Add(taxTotal).Add(inv.ShippingAmount)
	due := grand.Sub(inv.AmountPaid).ClampNonNegative()

	return InvoiceTotals{
		Subtotal:       subtotal,
		DiscountTotal:  discountTotal,
		TaxTotal:       taxTotal,
		ShippingAmount: inv.ShippingAmount,
		GrandTotal:     grand,
		DueAmount:      due,
		Split:          SplitTax(inv.TaxRegime, taxTotal),
	}
}

// SplitTax distributes tax under the given regime. CGST_SGST yields
// two halves that sum back to tax exactly; IGST reports the whole
// amount as one component; anything else reports a zero split.
func SplitTax(regime TaxRegime, tax Amount) TaxSplit {
	switch regime {
	case TaxRegimeCGSTSGST:
		cgst := tax.Half()
		return TaxSplit{CGST: cgst, SGST: tax.Sub(cgst)}
	case TaxRegimeIGST:
		return TaxSplit{IGST: tax}
	default:
		return TaxSplit{}
	}
}
