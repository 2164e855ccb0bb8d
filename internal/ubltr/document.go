package ubltr

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

var (
	pathInvoiceID        = MustCompile("cbc:ID", UBL)
	pathIssueDate        = MustCompile("cbc:IssueDate", UBL)
	pathSupplierParty    = MustCompile("cac:AccountingSupplierParty/cac:Party", UBL)
	pathPartyName        = MustCompile("cac:PartyName/cbc:Name", UBL)
	pathInvoiceLine      = MustCompile("cac:InvoiceLine", UBL)
	pathItemName         = MustCompile("cac:Item/cbc:Name", UBL)
	pathInvoicedQuantity = MustCompile("cbc:InvoicedQuantity", UBL)
)

// Document is a parsed UBL-TR invoice. It is read-only and is discarded
// once both record sets have been extracted from it.
type Document struct {
	root *etree.Element
}

// ParseDocument parses raw invoice bytes. The input must hold exactly one
// document element; text or a second element at the top level makes it
// malformed. Empty input has no root.
func ParseDocument(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, newParseError("ParseDocument", fmt.Errorf("%w: %v", ErrMalformedXML, err), "")
	}

	var root *etree.Element
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if root != nil {
				return nil, newParseError("ParseDocument", ErrMalformedXML, "junk after document element <"+t.FullTag()+">")
			}
			root = t
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return nil, newParseError("ParseDocument", ErrMalformedXML, "text outside the document element")
			}
		}
	}

	if root == nil {
		if len(bytes.TrimSpace(data)) > 0 {
			return nil, newParseError("ParseDocument", ErrMalformedXML, "no document element")
		}
		return nil, newParseError("ParseDocument", ErrMissingRoot, "")
	}
	return &Document{root: root}, nil
}

// Root returns the document element.
func (d *Document) Root() *etree.Element {
	return d.root
}

// InvoiceNumber returns the full cbc:ID of the invoice.
func (d *Document) InvoiceNumber() string {
	return Text(d.root, pathInvoiceID)
}

// IssueDate returns the raw cbc:IssueDate text.
func (d *Document) IssueDate() string {
	return Text(d.root, pathIssueDate)
}

// SupplierParty returns the supplier's cac:Party element, or nil.
func (d *Document) SupplierParty() *etree.Element {
	return pathSupplierParty.First(d.root)
}

// SupplierName returns the supplier's registered name.
func (d *Document) SupplierName() string {
	return Text(d.SupplierParty(), pathPartyName)
}

// Lines returns the cac:InvoiceLine elements in document order.
func (d *Document) Lines() []*etree.Element {
	return pathInvoiceLine.All(d.root)
}

// itemName returns the item name of an invoice line.
func itemName(line *etree.Element) string {
	return Text(line, pathItemName)
}

// quantityLabel combines a line's quantity with its translated unit, e.g.
// "5 Adet". Lines without a quantity element read "0 Adet"; a quantity
// without a unit code is the bare number.
func quantityLabel(line *etree.Element) string {
	q := pathInvoicedQuantity.First(line)
	if q == nil {
		return "0 " + DefaultUnitLabel
	}
	quantity := q.Text()
	if quantity == "" {
		quantity = "0"
	}
	unit := strings.TrimSpace(TranslateUnit(q.SelectAttrValue("unitCode", "")))
	return strings.TrimSpace(quantity + " " + unit)
}
