package repositories

import (
	"github.com/benj-n/regami/internal/models"
	"gorm.io/gorm"
)

// DogRepository defines the interface for dog profile lookups
type DogRepository interface {
	GetFirstDogName(userID string) (string, error)
	GetUserDogs(userID string) ([]models.Dog, error)
}

// PostgresDogRepository implements DogRepository for PostgreSQL
type PostgresDogRepository struct {
	db *gorm.DB
}

// NewPostgresDogRepository creates a new PostgresDogRepository
func NewPostgresDogRepository(db *gorm.DB) *PostgresDogRepository {
	return &PostgresDogRepository{db: db}
}

// GetFirstDogName returns the name of the first dog linked to the user,
// or an empty string when the user has no dogs.
func (r *PostgresDogRepository) GetFirstDogName(userID string) (string, error) {
	var dog models.Dog
	err := r.db.
		Joins("JOIN user_dogs ON user_dogs.dog_id = dogs.id").
		Where("user_dogs.user_id = ?", userID).
		Order("user_dogs.created_at ASC").
		First(&dog).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return dog.Name, nil
}

// GetUserDogs retrieves all dogs linked to the user
func (r *PostgresDogRepository) GetUserDogs(userID string) ([]models.Dog, error) {
	var dogs []models.Dog
	err := r.db.
		Joins("JOIN user_dogs ON user_dogs.dog_id = dogs.id").
		Where("user_dogs.user_id = ?", userID).
		Find(&dogs).Error
	return dogs, err
}
