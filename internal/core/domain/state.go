package domain

import "slices"

// Collections is the full set of synced business data held on a device.
type Collections struct {
	Transactions []Transaction `json:"transactions"`
	Accounts     []Account     `json:"accounts"`
	Products     []Product     `json:"products"`
	Entities     []Entity      `json:"entities"`
	Users        []User        `json:"users"`
	Companies    []Company     `json:"companies"`
	Settings     Settings      `json:"settings"`
	Categories   Categories    `json:"categories"`
}

// LocalState is the durable snapshot of a device: every collection plus the
// UI session fields.
type LocalState struct {
	Collections
	CurrentUserID string `json:"currentUserId"`
	IsLocked      bool   `json:"isLocked"`
	ShowLanding   bool   `json:"showLanding"`
}

// NewLocalState returns the state of a fresh installation.
func NewLocalState() LocalState {
	return LocalState{
		Collections: Collections{
			Transactions: []Transaction{},
			Accounts:     []Account{},
			Products:     []Product{},
			Entities:     []Entity{},
			Users:        []User{SuperAdmin()},
			Companies:    []Company{},
			Settings:     DefaultSettings(),
			Categories:   DefaultCategories(),
		},
		ShowLanding: true,
	}
}

// Clone returns a copy that shares no slices or maps with s.
func (s LocalState) Clone() LocalState {
	s.Collections = s.Collections.Clone()
	return s
}

// Clone returns a copy that shares no slices or maps with c.
func (c Collections) Clone() Collections {
	products := slices.Clone(c.Products)
	for i := range products {
		products[i].Tags = slices.Clone(products[i].Tags)
	}
	return Collections{
		Transactions: slices.Clone(c.Transactions),
		Accounts:     slices.Clone(c.Accounts),
		Products:     products,
		Entities:     slices.Clone(c.Entities),
		Users:        slices.Clone(c.Users),
		Companies:    slices.Clone(c.Companies),
		Settings:     c.Settings.Clone(),
		Categories:   c.Categories.Clone(),
	}
}

// EnsureSuperAdmin appends the SUPER_ADMIN record when no user carries its id.
// It reports whether the users collection changed.
func (s *LocalState) EnsureSuperAdmin() bool {
	for _, u := range s.Users {
		if u.ID == SuperAdminID {
			return false
		}
	}
	s.Users = append(s.Users, SuperAdmin())
	return true
}

// CurrentUser returns the session user, if any.
func (s LocalState) CurrentUser() (User, bool) {
	if s.CurrentUserID == "" {
		return User{}, false
	}
	return s.FindUser(s.CurrentUserID)
}

// FindUser looks a user up by id.
func (s LocalState) FindUser(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// FindUserByEmail looks a user up by e-mail, case-insensitively.
func (s LocalState) FindUserByEmail(email string) (User, bool) {
	for _, u := range s.Users {
		if u.HasEmail(email) {
			return u, true
		}
	}
	return User{}, false
}

// HasCompany reports whether a company with the id exists.
func (s LocalState) HasCompany(id string) bool {
	return slices.ContainsFunc(s.Companies, func(c Company) bool { return c.ID == id })
}

// ForTenant returns the records owned by one company: its company record and
// every tenant-scoped record carrying its id. Settings and categories are kept.
func (c Collections) ForTenant(companyID string) Collections {
	out := c.Clone()
	out.Transactions = keep(out.Transactions, func(t Transaction) bool { return t.CompanyID == companyID })
	out.Accounts = keep(out.Accounts, func(a Account) bool { return a.CompanyID == companyID })
	out.Products = keep(out.Products, func(p Product) bool { return p.CompanyID == companyID })
	out.Entities = keep(out.Entities, func(e Entity) bool { return e.CompanyID == companyID })
	out.Users = keep(out.Users, func(u User) bool { return u.CompanyID == companyID })
	out.Companies = keep(out.Companies, func(co Company) bool { return co.ID == companyID })
	return out
}

func keep[T any](records []T, match func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}
