package repository

import (
	"context"
	"regexp"
	"time"

	"feedback-api/src/models"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFormRepository stores forms in a MongoDB collection. Activation runs
// inside a multi-document transaction, which needs a replica set or mongos.
type MongoFormRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoFormRepository(client *mongo.Client, coll *mongo.Collection) *MongoFormRepository {
	return &MongoFormRepository{client: client, coll: coll}
}

func formQuery(f FormFilter) bson.M {
	query := bson.M{}
	if f.PackageName != "" {
		query["package_name"] = f.PackageName
	}
	if f.Title != "" {
		query["title"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f.Title), Options: "i"}}
	}
	if f.FormType != "" {
		query["form_type"] = f.FormType
	}
	if f.Active != nil {
		query["is_active"] = *f.Active
	}
	return query
}

// deactivateSiblings ปิด form อื่นที่ active อยู่ใน package เดียวกัน
func (r *MongoFormRepository) deactivateSiblings(ctx context.Context, packageName, exceptID string, at time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"package_name": packageName,
			"_id":          bson.M{"$ne": exceptID},
			"is_active":    true,
		},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoFormRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, errors.Annotate(err, "starting session")
	}
	defer session.EndSession(ctx)
	return session.WithTransaction(ctx, fn)
}

func (r *MongoFormRepository) Insert(ctx context.Context, form *models.Form) (int64, error) {
	if !form.IsActive {
		if _, err := r.coll.InsertOne(ctx, form); err != nil {
			return 0, errors.Annotatef(err, "inserting form for package %q", form.PackageName)
		}
		return 0, nil
	}

	res, err := r.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		n, err := r.deactivateSiblings(sc, form.PackageName, form.ID, form.CreatedAt)
		if err != nil {
			return nil, err
		}
		if _, err := r.coll.InsertOne(sc, form); err != nil {
			return nil, err
		}
		return n, nil
	})
	if err != nil {
		return 0, errors.Annotatef(err, "inserting active form for package %q", form.PackageName)
	}
	return res.(int64), nil
}

func (r *MongoFormRepository) findOne(ctx context.Context, query bson.M) (*models.Form, error) {
	var form models.Form
	err := r.coll.FindOne(ctx, query).Decode(&form)
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *MongoFormRepository) FindByID(ctx context.Context, id string) (*models.Form, error) {
	form, err := r.findOne(ctx, bson.M{"_id": id})
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFoundf("form %q", id)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "finding form %q", id)
	}
	return form, nil
}

func (r *MongoFormRepository) FindActive(ctx context.Context, packageName string) (*models.Form, error) {
	form, err := r.findOne(ctx, bson.M{"package_name": packageName, "is_active": true})
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFoundf("active form for package %q", packageName)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "finding active form for package %q", packageName)
	}
	return form, nil
}

func (r *MongoFormRepository) Find(ctx context.Context, filter FormFilter) ([]models.Form, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, formQuery(filter), opts)
	if err != nil {
		return nil, errors.Annotate(err, "finding forms")
	}
	defer cursor.Close(ctx)

	forms := []models.Form{}
	if err := cursor.All(ctx, &forms); err != nil {
		return nil, errors.Annotate(err, "decoding forms")
	}
	return forms, nil
}

func (r *MongoFormRepository) Count(ctx context.Context, filter FormFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, formQuery(filter))
	if err != nil {
		return 0, errors.Annotate(err, "counting forms")
	}
	return n, nil
}

func (r *MongoFormRepository) DistinctPackages(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "package_name", bson.M{})
	if err != nil {
		return nil, errors.Annotate(err, "listing package names")
	}
	packages := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			packages = append(packages, s)
		}
	}
	return packages, nil
}

func (r *MongoFormRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) (*models.Form, int64, error) {
	type outcome struct {
		form        *models.Form
		deactivated int64
	}

	res, err := r.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		form, err := r.findOne(sc, bson.M{"_id": id})
		if err == mongo.ErrNoDocuments {
			return nil, errors.NotFoundf("form %q", id)
		}
		if err != nil {
			return nil, err
		}

		var deactivated int64
		if active {
			if deactivated, err = r.deactivateSiblings(sc, form.PackageName, id, at); err != nil {
				return nil, err
			}
		}

		_, err = r.coll.UpdateOne(sc,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"is_active": active, "updated_at": at}},
		)
		if err != nil {
			return nil, err
		}
		form.IsActive = active
		form.UpdatedAt = at
		return outcome{form: form, deactivated: deactivated}, nil
	})
	if errors.Is(err, errors.NotFound) {
		return nil, 0, err
	}
	if err != nil {
		return nil, 0, errors.Annotatef(err, "setting is_active=%t on form %q", active, id)
	}
	out := res.(outcome)
	return out.form, out.deactivated, nil
}
