package accountuser

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clipshare/account-backend/pkg/user-management/types"
)

func (dbService *AccountUserDBService) AddUser(user types.User) (string, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	user.Timestamps.CreatedAt = time.Now().Unix()
	user.Timestamps.UpdatedAt = user.Timestamps.CreatedAt

	res, err := dbService.collectionUsers().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrAccountExists
		}
		return "", err
	}
	id := res.InsertedID.(primitive.ObjectID)
	return id.Hex(), nil
}

func (dbService *AccountUserDBService) GetUser(userID string) (types.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return types.User{}, ErrAccountNotFound
	}

	var user types.User
	err = dbService.collectionUsers().FindOne(ctx, bson.M{"_id": _id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.User{}, ErrAccountNotFound
	}
	return user, err
}

// GetUserByUsernameOrEmail looks up an account by either identity
// field. The identifier is matched against emails in lowercase form
// and against usernames verbatim.
func (dbService *AccountUserDBService) GetUserByUsernameOrEmail(identifier string) (types.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": identifier},
	}}

	var user types.User
	err := dbService.collectionUsers().FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.User{}, ErrAccountNotFound
	}
	return user, err
}

func (dbService *AccountUserDBService) GetUserByEmail(email string) (types.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var user types.User
	err := dbService.collectionUsers().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.User{}, ErrAccountNotFound
	}
	return user, err
}

// UpdateRefreshToken overwrites the stored refresh token. A new login
// supersedes any refresh token issued before.
func (dbService *AccountUserDBService) UpdateRefreshToken(userID string, refreshToken string) error {
	update := bson.M{"$set": bson.M{
		"refreshToken":         refreshToken,
		"timestamps.lastLogin": time.Now().Unix(),
		"timestamps.updatedAt": time.Now().Unix(),
	}}
	return dbService.updateUser(userID, update)
}

// ClearRefreshToken removes the stored refresh token. Clearing an
// already cleared token is not an error.
func (dbService *AccountUserDBService) ClearRefreshToken(userID string) error {
	update := bson.M{
		"$unset": bson.M{"refreshToken": 1},
		"$set":   bson.M{"timestamps.updatedAt": time.Now().Unix()},
	}
	return dbService.updateUser(userID, update)
}

// SetResetToken stores the reset token digest and its expiry, replacing
// any previously pending reset.
func (dbService *AccountUserDBService) SetResetToken(userID string, hash string, expiresAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"resetToken": types.ResetToken{
			Hash:      hash,
			ExpiresAt: expiresAt,
		},
		"timestamps.updatedAt": time.Now().Unix(),
	}}
	return dbService.updateUser(userID, update)
}

// GetUserByValidResetToken finds the account holding the given token
// digest with an expiry still in the future.
func (dbService *AccountUserDBService) GetUserByValidResetToken(hash string) (types.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"resetToken.hash":      hash,
		"resetToken.expiresAt": bson.M{"$gt": time.Now()},
	}

	var user types.User
	err := dbService.collectionUsers().FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.User{}, ErrAccountNotFound
	}
	return user, err
}

// UpdatePasswordAndClearResetToken consumes a pending reset: the new
// password hash is set and the reset token fields removed in the same
// update, so a reset token can never be replayed.
func (dbService *AccountUserDBService) UpdatePasswordAndClearResetToken(userID string, newPasswordHash string) error {
	update := bson.M{
		"$set": bson.M{
			"passwordHash":                  newPasswordHash,
			"timestamps.lastPasswordChange": time.Now().Unix(),
			"timestamps.updatedAt":          time.Now().Unix(),
		},
		"$unset": bson.M{"resetToken": 1},
	}
	return dbService.updateUser(userID, update)
}

func (dbService *AccountUserDBService) DeleteUser(userID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrAccountNotFound
	}

	res, err := dbService.collectionUsers().DeleteOne(ctx, bson.M{"_id": _id})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return ErrAccountNotFound
	}
	return nil
}

// CleanupExpiredResetTokens removes reset token entries whose expiry
// has passed. Expired tokens are already rejected on lookup, this only
// keeps the documents tidy.
func (dbService *AccountUserDBService) CleanupExpiredResetTokens() (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"resetToken.expiresAt": bson.M{"$lt": time.Now()}}
	update := bson.M{"$unset": bson.M{"resetToken": 1}}

	res, err := dbService.collectionUsers().UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (dbService *AccountUserDBService) updateUser(userID string, update bson.M) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrAccountNotFound
	}

	res, err := dbService.collectionUsers().UpdateOne(ctx, bson.M{"_id": _id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return ErrAccountNotFound
	}
	return nil
}
