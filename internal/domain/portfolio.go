package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Portfolio is the full set of instrument parameter records owned by one household
type Portfolio struct {
	ID             uuid.UUID
	Name           string
	Version        int // bumped on every change; part of the projection cache key
	Currency       string
	Assets         []*Asset
	Loans          []*Loan
	RevenueStreams []*RevenueStream // standalone streams (AssetID == nil)
	CashFlows      []*CashFlowEntry // standalone cash flows (TargetAssetID == nil)
}

// Validate validates every contained record
func (p *Portfolio) Validate() error {
	if p.ID == uuid.Nil {
		return errors.New("portfolio must have an id")
	}
	for _, a := range p.Assets {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	for _, l := range p.Loans {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	for _, s := range p.RevenueStreams {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, c := range p.CashFlows {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the portfolio has neither assets nor loans
func (p *Portfolio) IsEmpty() bool {
	return len(p.Assets) == 0 && len(p.Loans) == 0
}

// FindAsset returns the asset with the given id, or nil
func (p *Portfolio) FindAsset(id uuid.UUID) *Asset {
	for _, a := range p.Assets {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// FindLoan returns the loan with the given id, or nil
func (p *Portfolio) FindLoan(id uuid.UUID) *Loan {
	for _, l := range p.Loans {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Clone deep-copies the instrument collection so a scenario run can mutate it freely
func (p *Portfolio) Clone() *Portfolio {
	out := &Portfolio{
		ID:       p.ID,
		Name:     p.Name,
		Version:  p.Version,
		Currency: p.Currency,
	}
	for _, a := range p.Assets {
		out.Assets = append(out.Assets, a.Clone())
	}
	for _, l := range p.Loans {
		out.Loans = append(out.Loans, l.Clone())
	}
	for _, s := range p.RevenueStreams {
		out.RevenueStreams = append(out.RevenueStreams, s.Clone())
	}
	for _, c := range p.CashFlows {
		out.CashFlows = append(out.CashFlows, c.Clone())
	}
	return out
}
