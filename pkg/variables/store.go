package variables

// Store holds the variables of a schedule. Names are unique within a kind and
// insertion order is preserved so persisted files stay stable.
type Store struct {
	floats   []*Float
	booleans []*Boolean
	strings  []*String

	floatIndex   map[string]*Float
	booleanIndex map[string]*Boolean
	stringIndex  map[string]*String
}

// NewStore creates an empty variable store.
func NewStore() *Store {
	return &Store{
		floatIndex:   make(map[string]*Float),
		booleanIndex: make(map[string]*Boolean),
		stringIndex:  make(map[string]*String),
	}
}

// AddFloat registers a float variable whose value and original value are both value.
func (s *Store) AddFloat(name string, value float64) (*Float, error) {
	return s.RestoreFloat(name, value, value)
}

// RestoreFloat registers a float variable with an explicit current value.
func (s *Store) RestoreFloat(name string, value, original float64) (*Float, error) {
	if _, exists := s.floatIndex[name]; exists {
		return nil, &DuplicateError{Kind: KindFloat, Name: name}
	}

	v := &Float{Name: name, Value: value, OriginalValue: original}
	s.floats = append(s.floats, v)
	s.floatIndex[name] = v

	return v, nil
}

// AddBoolean registers a boolean variable whose value and original value are both value.
func (s *Store) AddBoolean(name string, value bool) (*Boolean, error) {
	return s.RestoreBoolean(name, value, value)
}

// RestoreBoolean registers a boolean variable with an explicit current value.
func (s *Store) RestoreBoolean(name string, value, original bool) (*Boolean, error) {
	if _, exists := s.booleanIndex[name]; exists {
		return nil, &DuplicateError{Kind: KindBoolean, Name: name}
	}

	v := &Boolean{Name: name, Value: value, OriginalValue: original}
	s.booleans = append(s.booleans, v)
	s.booleanIndex[name] = v

	return v, nil
}

// AddString registers a string variable whose value and original value are both value.
func (s *Store) AddString(name, value string) (*String, error) {
	return s.RestoreString(name, value, value)
}

// RestoreString registers a string variable with an explicit current value.
func (s *Store) RestoreString(name, value, original string) (*String, error) {
	if _, exists := s.stringIndex[name]; exists {
		return nil, &DuplicateError{Kind: KindString, Name: name}
	}

	v := &String{Name: name, Value: value, OriginalValue: original}
	s.strings = append(s.strings, v)
	s.stringIndex[name] = v

	return v, nil
}

// Float returns the float variable with the given name.
func (s *Store) Float(name string) (*Float, error) {
	if v, ok := s.floatIndex[name]; ok {
		return v, nil
	}

	return nil, &LookupError{Kind: KindFloat, Name: name}
}

// Boolean returns the boolean variable with the given name. The NullName
// sentinel resolves to (nil, nil).
func (s *Store) Boolean(name string) (*Boolean, error) {
	if name == NullName {
		return nil, nil
	}

	if v, ok := s.booleanIndex[name]; ok {
		return v, nil
	}

	return nil, &LookupError{Kind: KindBoolean, Name: name}
}

// String returns the string variable with the given name.
func (s *Store) String(name string) (*String, error) {
	if v, ok := s.stringIndex[name]; ok {
		return v, nil
	}

	return nil, &LookupError{Kind: KindString, Name: name}
}

// HasFloat reports whether a float variable with that name exists.
func (s *Store) HasFloat(name string) bool {
	_, ok := s.floatIndex[name]

	return ok
}

// HasBoolean reports whether a boolean variable with that name exists.
func (s *Store) HasBoolean(name string) bool {
	_, ok := s.booleanIndex[name]

	return ok
}

// HasString reports whether a string variable with that name exists.
func (s *Store) HasString(name string) bool {
	_, ok := s.stringIndex[name]

	return ok
}

// Floats returns the float variables in definition order.
func (s *Store) Floats() []*Float { return s.floats }

// Booleans returns the boolean variables in definition order.
func (s *Store) Booleans() []*Boolean { return s.booleans }

// Strings returns the string variables in definition order.
func (s *Store) Strings() []*String { return s.strings }

// Reset restores every variable to its original value.
func (s *Store) Reset() {
	for _, v := range s.floats {
		v.Reset()
	}

	for _, v := range s.booleans {
		v.Reset()
	}

	for _, v := range s.strings {
		v.Reset()
	}
}
