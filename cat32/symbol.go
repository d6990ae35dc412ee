package cat32

// Symbol is a unique token. A registered symbol is identified by its key
// and equal to every other registered symbol with that key. A local symbol
// is identified only by its pointer; two local symbols with the same
// description are different values.
type Symbol struct {
	description string
	key         string
	registered  bool
}

// NewSymbol creates a local symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

// SymbolFor returns the registered symbol for key.
func SymbolFor(key string) *Symbol {
	return &Symbol{description: key, key: key, registered: true}
}

// Description returns the symbol's display text.
func (s *Symbol) Description() string {
	return s.description
}

// Key returns the registration key of a registered symbol.
func (s *Symbol) Key() (string, bool) {
	return s.key, s.registered
}

// Registered reports whether the symbol was created with SymbolFor.
func (s *Symbol) Registered() bool {
	return s.registered
}

// String returns "Symbol(description)".
func (s *Symbol) String() string {
	return "Symbol(" + s.description + ")"
}

func (s *Symbol) same(o *Symbol) bool {
	if s == o {
		return true
	}
	return s.registered && o.registered && s.key == o.key
}
