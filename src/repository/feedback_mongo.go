package repository

import (
	"context"
	"regexp"

	"feedback-api/src/models"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoFeedbackRepository struct {
	coll *mongo.Collection
}

func NewMongoFeedbackRepository(coll *mongo.Collection) *MongoFeedbackRepository {
	return &MongoFeedbackRepository{coll: coll}
}

func feedbackQuery(f FeedbackFilter) bson.M {
	query := bson.M{"package_name": f.PackageName}
	if f.FormID != "" {
		query["form_id"] = f.FormID
	}
	if f.UserID != "" {
		query["user_id"] = f.UserID
	}
	if f.MessageQuery != "" {
		query["message"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f.MessageQuery), Options: "i"}}
	}
	return query
}

func (r *MongoFeedbackRepository) Insert(ctx context.Context, fb *models.Feedback) error {
	if _, err := r.coll.InsertOne(ctx, fb); err != nil {
		return errors.Annotatef(err, "inserting feedback for package %q", fb.PackageName)
	}
	return nil
}

func (r *MongoFeedbackRepository) FindByID(ctx context.Context, packageName, id string) (*models.Feedback, error) {
	var fb models.Feedback
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "package_name": packageName}).Decode(&fb)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFoundf("feedback %q in package %q", id, packageName)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "finding feedback %q", id)
	}
	return &fb, nil
}

func (r *MongoFeedbackRepository) Find(ctx context.Context, filter FeedbackFilter, opts FindOptions) ([]models.Feedback, error) {
	findOpts := options.Find()
	if opts.NewestFirst {
		findOpts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	} else {
		findOpts.SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := r.coll.Find(ctx, feedbackQuery(filter), findOpts)
	if err != nil {
		return nil, errors.Annotatef(err, "finding feedback for package %q", filter.PackageName)
	}
	defer cursor.Close(ctx)

	feedback := []models.Feedback{}
	if err := cursor.All(ctx, &feedback); err != nil {
		return nil, errors.Annotate(err, "decoding feedback")
	}
	return feedback, nil
}

func (r *MongoFeedbackRepository) Exists(ctx context.Context, packageName string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"package_name": packageName}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Annotatef(err, "checking feedback for package %q", packageName)
	}
	return n > 0, nil
}

type ratingBucket struct {
	Rating *int  `bson:"_id"`
	Count  int64 `bson:"count"`
}

// RatingSummary groups the matching feedback by rating value in one pass.
// Feedback without a rating lands in the null bucket and only counts
// towards Total.
func (r *MongoFeedbackRepository) RatingSummary(ctx context.Context, filter FeedbackFilter) (*models.RatingSummary, error) {
	pipeline := []bson.M{
		{"$match": feedbackQuery(filter)},
		{"$group": bson.M{
			"_id":   "$rating",
			"count": bson.M{"$sum": 1},
		}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Annotatef(err, "aggregating ratings for package %q", filter.PackageName)
	}
	defer cur.Close(ctx)

	var buckets []ratingBucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, errors.Annotate(err, "decoding rating buckets")
	}

	summary := &models.RatingSummary{Breakdown: map[int]int64{}}
	for _, b := range buckets {
		summary.Total += b.Count
		if b.Rating == nil || *b.Rating < 1 || *b.Rating > 5 {
			continue
		}
		summary.Rated += b.Count
		summary.Sum += int64(*b.Rating) * b.Count
		summary.Breakdown[*b.Rating] += b.Count
	}
	return summary, nil
}

func (r *MongoFeedbackRepository) DeleteByID(ctx context.Context, packageName, id string) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "package_name": packageName})
	if err != nil {
		return 0, errors.Annotatef(err, "deleting feedback %q", id)
	}
	return res.DeletedCount, nil
}

func (r *MongoFeedbackRepository) DeleteMany(ctx context.Context, filter FeedbackFilter) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, feedbackQuery(filter))
	if err != nil {
		return 0, errors.Annotatef(err, "deleting feedback for package %q", filter.PackageName)
	}
	return res.DeletedCount, nil
}
