package domain

// Actor is the identity performing a ledger operation. Authorization happens upstream;
// the role and owner flag are carried only for the audit trail.
type Actor struct {
	UserID  string `json:"userId" yaml:"userId" validate:"required"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	IsOwner bool   `json:"isOwner" yaml:"isOwner"`
}
