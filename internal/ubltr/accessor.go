package ubltr

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// taxSchemes are the party identification schemes accepted as a tax ID.
var taxSchemes = map[string]bool{
	"VKN":  true,
	"TCKN": true,
}

var (
	pathPartyIdentification = MustCompile("cac:PartyIdentification", UBL)
	pathID                  = MustCompile("cbc:ID", UBL)
)

// Lookup returns the text of the first element matching p below el and
// whether such an element exists. An element without character data
// yields ("", true).
func Lookup(el *etree.Element, p Path) (string, bool) {
	found := p.First(el)
	if found == nil {
		return "", false
	}
	return found.Text(), true
}

// Text returns the text of the first element matching p below el, or an
// empty string when there is none or el is nil.
func Text(el *etree.Element, p Path) string {
	text, _ := Lookup(el, p)
	return text
}

// Amount returns the decimal value of the first element matching p below
// el. Absent or empty elements yield zero with present set to false. Text
// that is present but not a number is an error.
func Amount(el *etree.Element, p Path) (amount decimal.Decimal, present bool, err error) {
	text, ok := Lookup(el, p)
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %s = %q", ErrInvalidAmount, p, text)
	}
	return d, true, nil
}

// TaxID scans the cac:PartyIdentification children of party and returns
// the first cbc:ID whose schemeID is VKN or TCKN, or an empty string.
func TaxID(party *etree.Element) string {
	for _, ident := range pathPartyIdentification.All(party) {
		id := pathID.First(ident)
		if id == nil {
			continue
		}
		if taxSchemes[id.SelectAttrValue("schemeID", "")] {
			return id.Text()
		}
	}
	return ""
}
