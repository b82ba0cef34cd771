// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// FirestoreSink adds one document per record to a collection.
type FirestoreSink struct {
	c          *firestore.Client
	collection string
}

// NewFirestoreSink connects with credentialsFile, or with application
// default credentials when it is empty.
func NewFirestoreSink(ctx context.Context, projectID, credentialsFile, collection string) (*FirestoreSink, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	c, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreSink{c: c, collection: collection}, nil
}

func (s *FirestoreSink) Submit(ctx context.Context, rec vitals.Record) error {
	_, _, err := s.c.Collection(s.collection).Add(ctx, rec.Fields())
	return classify(err)
}

// classify maps gRPC failures onto the package errors. Codes raised before
// the store could answer count as transport errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return fmt.Errorf("firestore add: %w", err)
}

func (s *FirestoreSink) Close() error {
	return s.c.Close()
}
