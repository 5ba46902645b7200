package store

import (
	"context"
	"errors"
	"fmt"

	"creative-arena-backend/internal/database"
	"creative-arena-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client      *mongo.Client
	users       *mongo.Collection
	contests    *mongo.Collection
	payments    *mongo.Collection
	submissions *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		client:      client,
		users:       db.Collection(database.UsersCollection),
		contests:    db.Collection(database.ContestsCollection),
		payments:    db.Collection(database.PaymentsCollection),
		submissions: db.Collection(database.SubmissionsCollection),
	}
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func newObjectID(id string) string {
	if id != "" {
		return id
	}
	return primitive.NewObjectID().Hex()
}

func (s *MongoStore) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	result := []T{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func findOneAndSet[T any](ctx context.Context, coll *mongo.Collection, filter, set bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	err := coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = newObjectID(user.ID)
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, s.users, bson.M{})
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"email": email})
}

func (s *MongoStore) UpdateUserRole(ctx context.Context, id, role string) (*models.User, error) {
	return findOneAndSet[models.User](ctx, s.users, bson.M{"_id": id}, bson.M{"role": role})
}

func (s *MongoStore) UpdateProfile(ctx context.Context, email string, upd models.ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	if upd.DisplayName != nil {
		set["displayName"] = *upd.DisplayName
	}
	if upd.PhotoURL != nil {
		set["photoURL"] = *upd.PhotoURL
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if len(set) == 0 {
		return s.GetUserByEmail(ctx, email)
	}
	return findOneAndSet[models.User](ctx, s.users, bson.M{"email": email}, set)
}

func (s *MongoStore) CreateContest(ctx context.Context, contest *models.Contest) error {
	contest.ID = newObjectID(contest.ID)
	if _, err := s.contests.InsertOne(ctx, contest); err != nil {
		return fmt.Errorf("failed to create contest: %w", err)
	}
	return nil
}

func (s *MongoStore) ListContests(ctx context.Context, skip, limit int) ([]models.Contest, int64, error) {
	opts := options.Find().SetSkip(int64(skip)).SetLimit(int64(limit))
	contests, err := findAll[models.Contest](ctx, s.contests, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contests.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return contests, total, nil
}

func (s *MongoStore) ListContestsByStatus(ctx context.Context, status string) ([]models.Contest, error) {
	return findAll[models.Contest](ctx, s.contests, bson.M{"status": status})
}

func (s *MongoStore) ListContestsByCreator(ctx context.Context, email string) ([]models.Contest, error) {
	return findAll[models.Contest](ctx, s.contests, bson.M{"createdBy": email})
}

func (s *MongoStore) GetContest(ctx context.Context, id string) (*models.Contest, error) {
	return findOne[models.Contest](ctx, s.contests, bson.M{"_id": id})
}

func (s *MongoStore) GetContestsByIDs(ctx context.Context, ids []string) ([]models.Contest, error) {
	if len(ids) == 0 {
		return []models.Contest{}, nil
	}
	return findAll[models.Contest](ctx, s.contests, bson.M{"_id": bson.M{"$in": ids}})
}

func contestUpdateSet(upd models.ContestUpdate) bson.M {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.PrizeMoney != nil {
		set["prizeMoney"] = *upd.PrizeMoney
	}
	if upd.TaskInstruction != nil {
		set["taskInstruction"] = *upd.TaskInstruction
	}
	if upd.ContestType != nil {
		set["contestType"] = *upd.ContestType
	}
	if upd.Deadline != nil {
		set["deadline"] = *upd.Deadline
	}
	return set
}

func (s *MongoStore) UpdateContest(ctx context.Context, id string, upd models.ContestUpdate) (*models.Contest, error) {
	set := contestUpdateSet(upd)
	if len(set) == 0 {
		return s.GetContest(ctx, id)
	}
	return findOneAndSet[models.Contest](ctx, s.contests, bson.M{"_id": id}, set)
}

func (s *MongoStore) UpdateContestStatus(ctx context.Context, id, status string) (*models.Contest, error) {
	return findOneAndSet[models.Contest](ctx, s.contests, bson.M{"_id": id}, bson.M{"status": status})
}

func (s *MongoStore) DeleteContest(ctx context.Context, id string) error {
	res, err := s.contests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete contest: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) PopularContests(ctx context.Context, limit int) ([]models.Contest, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.ContestStatusApproved}}}},
		{{Key: "$addFields", Value: bson.D{{Key: "participantsCount", Value: bson.D{
			{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$participants", bson.A{}}}}},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "participantsCount", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{{Key: "participantsCount", Value: 0}}}},
	}

	cursor, err := s.contests.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate popular contests: %w", err)
	}
	result := []models.Contest{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MongoStore) RecordPayment(ctx context.Context, payment *models.Payment) error {
	payment.ID = newObjectID(payment.ID)
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.payments.InsertOne(sc, payment); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		_, err := s.contests.UpdateOne(sc,
			bson.M{"_id": payment.ContestID},
			bson.M{"$addToSet": bson.M{"participants": payment.Email}},
		)
		if err != nil {
			return fmt.Errorf("failed to register participant: %w", err)
		}
		return nil
	})
}

func (s *MongoStore) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	return findOne[models.Payment](ctx, s.payments, bson.M{"transactionId": transactionID})
}

func (s *MongoStore) FindPaidPayment(ctx context.Context, contestID, email string) (*models.Payment, error) {
	return findOne[models.Payment](ctx, s.payments, bson.M{
		"contestId": contestID,
		"email":     email,
		"status":    models.PaymentStatusPaid,
	})
}

func (s *MongoStore) ListPaidPaymentsByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	return findAll[models.Payment](ctx, s.payments, bson.M{"email": email, "status": models.PaymentStatusPaid})
}

func (s *MongoStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	submission.ID = newObjectID(submission.ID)
	if _, err := s.submissions.InsertOne(ctx, submission); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (s *MongoStore) FindSubmission(ctx context.Context, contestID, email string) (*models.Submission, error) {
	return findOne[models.Submission](ctx, s.submissions, bson.M{"contestId": contestID, "participant.email": email})
}

func (s *MongoStore) ListSubmissionsByContest(ctx context.Context, contestID string) ([]models.Submission, error) {
	return findAll[models.Submission](ctx, s.submissions, bson.M{"contestId": contestID})
}

func (s *MongoStore) ListSubmissionsByContests(ctx context.Context, contestIDs []string) ([]models.Submission, error) {
	if len(contestIDs) == 0 {
		return []models.Submission{}, nil
	}
	return findAll[models.Submission](ctx, s.submissions, bson.M{"contestId": bson.M{"$in": contestIDs}})
}

func (s *MongoStore) ListWinningSubmissions(ctx context.Context, email string) ([]models.Submission, error) {
	return findAll[models.Submission](ctx, s.submissions, bson.M{"participant.email": email, "isWinner": true})
}

func (s *MongoStore) CountSubmissions(ctx context.Context, email string) (int64, int64, error) {
	participated, err := s.submissions.CountDocuments(ctx, bson.M{"participant.email": email})
	if err != nil {
		return 0, 0, err
	}
	won, err := s.submissions.CountDocuments(ctx, bson.M{"participant.email": email, "isWinner": true})
	if err != nil {
		return 0, 0, err
	}
	return participated, won, nil
}

func (s *MongoStore) DeclareWinner(ctx context.Context, contestID, submissionID string) (*models.Submission, error) {
	var winner *models.Submission
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		target, err := findOne[models.Submission](sc, s.submissions, bson.M{"_id": submissionID, "contestId": contestID})
		if err != nil {
			return err
		}

		_, err = s.submissions.UpdateMany(sc,
			bson.M{"contestId": contestID},
			bson.M{"$set": bson.M{"isWinner": false, "status": models.SubmissionStatusRejected}},
		)
		if err != nil {
			return fmt.Errorf("failed to reset submissions: %w", err)
		}

		_, err = s.submissions.UpdateOne(sc,
			bson.M{"_id": submissionID},
			bson.M{"$set": bson.M{"isWinner": true, "status": models.SubmissionStatusWinner}},
		)
		if err != nil {
			return fmt.Errorf("failed to mark winner: %w", err)
		}

		target.IsWinner = true
		target.Status = models.SubmissionStatusWinner
		winner = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return winner, nil
}

var _ Store = (*MongoStore)(nil)
