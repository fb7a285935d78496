// Package services implements the user record operations on top of a
// store.UserStore.
//
// Create checks for a duplicate username and then inserts, and Update
// writes and then re-reads; neither pair is atomic.
package services

import (
	"context"
	"errors"
	"fmt"

	"usuarios-service/models"
	"usuarios-service/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	instrumentationName = "usuarios-service/services"
	LoginSuccessMessage = "Login successful"
)

type UserService struct {
	store      store.UserStore
	log        *zap.SugaredLogger
	tracer     trace.Tracer
	operations metric.Int64Counter
}

func NewUserService(userStore store.UserStore, log *zap.SugaredLogger) *UserService {
	operations, err := otel.Meter(instrumentationName).Int64Counter(
		"usuarios.operations",
		metric.WithDescription("User operations by name and outcome"),
	)
	if err != nil {
		log.Warnw("operation counter unavailable", "error", err)
		operations = noop.Int64Counter{}
	}

	return &UserService{
		store:      userStore,
		log:        log,
		tracer:     otel.Tracer(instrumentationName),
		operations: operations,
	}
}

func (s *UserService) Create(ctx context.Context, in models.UserCreate) (out models.UserOutput, err error) {
	ctx, finish := s.start(ctx, "create")
	defer func() { finish(err) }()

	if _, err := s.store.FindOne(ctx, store.ByUsername(in.Username)); err == nil {
		return models.UserOutput{}, ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNoDocument) {
		return models.UserOutput{}, err
	}

	id, err := s.store.InsertOne(ctx, in.Document())
	if err != nil {
		return models.UserOutput{}, err
	}

	doc, err := s.store.FindOne(ctx, store.ByID(id))
	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return models.UserOutput{}, fmt.Errorf("inserted user %v vanished: %w", id, err)
		}
		return models.UserOutput{}, err
	}

	s.log.Infow("user created", "username", in.Username)
	return s.serialize(doc)
}

func (s *UserService) List(ctx context.Context) (out []models.UserOutput, err error) {
	ctx, finish := s.start(ctx, "list")
	defer func() { finish(err) }()

	docs, err := s.store.Find(ctx)
	if err != nil {
		return nil, err
	}

	out = make([]models.UserOutput, 0, len(docs))
	for _, doc := range docs {
		user, err := s.serialize(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, username string) (out models.UserOutput, err error) {
	ctx, finish := s.start(ctx, "get")
	defer func() { finish(err) }()

	doc, err := s.findByUsername(ctx, username)
	if err != nil {
		return models.UserOutput{}, err
	}
	return s.serialize(doc)
}

// Update applies the supplied fields with $set semantics. The username is
// never changed, even when the payload carries one.
func (s *UserService) Update(ctx context.Context, username string, in models.UserUpdate) (out models.UserOutput, err error) {
	ctx, finish := s.start(ctx, "update")
	defer func() { finish(err) }()

	fields := in.Fields()
	delete(fields, models.FieldUsername)
	if len(fields) == 0 {
		return models.UserOutput{}, ErrEmptyUpdate
	}

	matched, err := s.store.UpdateOne(ctx, store.ByUsername(username), fields)
	if err != nil {
		return models.UserOutput{}, err
	}
	if matched == 0 {
		return models.UserOutput{}, notFound(username)
	}

	doc, err := s.findByUsername(ctx, username)
	if err != nil {
		return models.UserOutput{}, err
	}

	s.log.Infow("user updated", "username", username, "fields", len(fields))
	return s.serialize(doc)
}

func (s *UserService) Delete(ctx context.Context, username string) (err error) {
	ctx, finish := s.start(ctx, "delete")
	defer func() { finish(err) }()

	deleted, err := s.store.DeleteOne(ctx, store.ByUsername(username))
	if err != nil {
		return err
	}
	if deleted == 0 {
		return notFound(username)
	}

	s.log.Infow("user deleted", "username", username)
	return nil
}

// Login compares the supplied password with the stored one as plain strings.
// An unknown username and a wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, in models.UserLogin) (out models.LoginResult, err error) {
	ctx, finish := s.start(ctx, "login")
	defer func() { finish(err) }()

	doc, err := s.store.FindOne(ctx, store.ByUsername(in.Username))
	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return models.LoginResult{}, ErrInvalidCredentials
		}
		return models.LoginResult{}, err
	}

	stored, ok := doc[models.FieldPassword].(string)
	if !ok || stored != in.Password {
		return models.LoginResult{}, ErrInvalidCredentials
	}

	return models.LoginResult{Message: LoginSuccessMessage, Username: in.Username}, nil
}

func (s *UserService) findByUsername(ctx context.Context, username string) (models.Document, error) {
	doc, err := s.store.FindOne(ctx, store.ByUsername(username))
	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return nil, notFound(username)
		}
		return nil, err
	}
	return doc, nil
}

func (s *UserService) serialize(doc models.Document) (models.UserOutput, error) {
	out, err := models.SerializeUser(doc)
	if err != nil {
		s.log.Errorw("stored user failed serialization", "error", err)
		return models.UserOutput{}, err
	}
	return out, nil
}

// start opens a span for the operation and returns the function that
// records its outcome.
func (s *UserService) start(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "users."+operation)
	return ctx, func(err error) {
		outcome := outcomeOf(err)
		s.operations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
		if err != nil && outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateUsername), errors.Is(err, ErrEmptyUpdate):
		return "rejected"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCredentials):
		return "unauthorized"
	default:
		return "error"
	}
}
