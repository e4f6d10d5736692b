package repository

// Repository persists the default progress template.
type Repository interface {
	Load() (string, error)
	Save(text string) error
	Delete() error
}
