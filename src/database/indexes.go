package database

import (
	"context"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActiveFormIndexName is the partial unique index that lets the store itself
// reject a second active form in the same package.
const ActiveFormIndexName = "one_active_form_per_package"

// EnsureIndexes creates the indexes both collections rely on. Creating an
// index that already exists with the same options is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	formIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "package_name", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("package_active"),
		},
		{
			Keys: bson.D{{Key: "package_name", Value: 1}},
			Options: options.Index().
				SetName(ActiveFormIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
	}
	if _, err := db.Collection(FormsCollectionName).Indexes().CreateMany(ctx, formIndexes); err != nil {
		return errors.Annotate(err, "creating form indexes")
	}

	feedbackIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "package_name", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("package_recent"),
		},
		{
			Keys:    bson.D{{Key: "package_name", Value: 1}, {Key: "form_id", Value: 1}},
			Options: options.Index().SetName("package_form"),
		},
		{
			Keys:    bson.D{{Key: "package_name", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("package_user"),
		},
	}
	if _, err := db.Collection(FeedbackCollectionName).Indexes().CreateMany(ctx, feedbackIndexes); err != nil {
		return errors.Annotate(err, "creating feedback indexes")
	}

	logger.Infof("indexes ensured on %q and %q", FormsCollectionName, FeedbackCollectionName)
	return nil
}
