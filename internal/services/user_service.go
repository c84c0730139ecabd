package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/priyanshu-0212/my-agri-portal/internal/auth"
	"github.com/priyanshu-0212/my-agri-portal/internal/db"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

// RegisterInput carries the already-form-validated registration fields.
// Password confirmation matching is the handler's job; the service only
// sees the agreed password.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Phone    string
	Address  string
}

// IUserService defines the interface for user-related operations.
// This allows for easier mocking in tests.
type IUserService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	DeleteUserCascade(ctx context.Context, userID primitive.ObjectID) error
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database) IUserService {
	return &userService{db: database}
}

// Register creates a new account. Username and email uniqueness is
// ultimately enforced by the partial unique indexes; the pre-checks exist
// to return a precise sentinel instead of a raw duplicate-key error.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	collection := s.db.Collection(usersCollection)

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "a valid email address is required"
	}
	if input.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	count, err := collection.CountDocuments(ctx, bson.M{"username": username, "deleted": false})
	if err != nil {
		return nil, fmt.Errorf("error checking username uniqueness for %s: %w", username, err)
	}
	if count > 0 {
		return nil, ErrUsernameExists
	}
	count, err = collection.CountDocuments(ctx, bson.M{"email": email, "deleted": false})
	if err != nil {
		return nil, fmt.Errorf("error checking email uniqueness for %s: %w", email, err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var newUser *models.User

	operation := func() error {
		newUser = &models.User{
			ID:           primitive.NewObjectID(), // ID generated on each attempt
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         input.Role,
			Phone:        strings.TrimSpace(input.Phone),
			Address:      strings.TrimSpace(input.Address),
			IsAdmin:      false,
			IsActive:     true,
			Deleted:      false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, insertErr := collection.InsertOne(ctx, newUser)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// Raced another registration between the pre-check and the
			// insert; figure out which field lost.
			if c, cErr := collection.CountDocuments(ctx, bson.M{"username": username, "deleted": false}); cErr == nil && c > 0 {
				return nil, ErrUsernameExists
			}
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to insert new user %s after multiple retries: %w", username, err)
	}

	return newUser, nil
}

// Authenticate verifies a username/password pair against the stored bcrypt
// hash. Inactive and deleted accounts fail the same way as bad credentials.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindByID finds a non-deleted user by ID.
// Returns mongo.ErrNoDocuments if not found.
func (s *userService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"_id": userID, "deleted": false}

	err := collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID.Hex(), err)
	}
	return &user, nil
}

// FindByUsername finds a non-deleted user by username.
// Returns mongo.ErrNoDocuments if not found.
func (s *userService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"username": username, "deleted": false}

	err := collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by username %s: %w", username, err)
	}
	return &user, nil
}

// DeleteUserCascade soft-deletes a user together with everything hanging
// off the account: a farmer's products and the inquiries against them, and
// the user's own inquiries as buyer.
func (s *userService) DeleteUserCascade(ctx context.Context, userID primitive.ObjectID) error {
	now := time.Now().UTC()
	markDeleted := bson.M{"$set": bson.M{"deleted": true, "updated_at": now}}

	result, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": userID, "deleted": false}, markDeleted)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	// Products owned by the user, and inquiries against those products.
	productColl := s.db.Collection(productsCollection)
	cursor, err := productColl.Find(ctx, bson.M{"farmer_id": userID, "deleted": false})
	if err != nil {
		return fmt.Errorf("failed to list products of user %s: %w", userID.Hex(), err)
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return fmt.Errorf("failed to decode products of user %s: %w", userID.Hex(), err)
	}
	if len(products) > 0 {
		productIDs := make([]primitive.ObjectID, 0, len(products))
		for _, p := range products {
			productIDs = append(productIDs, p.ID)
		}
		if _, err := productColl.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": productIDs}}, markDeleted); err != nil {
			return fmt.Errorf("failed to cascade product deletion for user %s: %w", userID.Hex(), err)
		}
		if _, err := s.db.Collection(inquiriesCollection).UpdateMany(ctx,
			bson.M{"product_id": bson.M{"$in": productIDs}, "deleted": false}, markDeleted); err != nil {
			return fmt.Errorf("failed to cascade inquiry deletion for user %s: %w", userID.Hex(), err)
		}
	}

	// Inquiries the user made as buyer.
	if _, err := s.db.Collection(inquiriesCollection).UpdateMany(ctx,
		bson.M{"buyer_id": userID, "deleted": false}, markDeleted); err != nil {
		return fmt.Errorf("failed to cascade buyer inquiry deletion for user %s: %w", userID.Hex(), err)
	}

	return nil
}
