package faceService

import (
	"math"
	"time"

	"StudySanctuary/internal/api/face"
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/biometric"
	contextPkg "StudySanctuary/pkg/context"
	jwtPkg "StudySanctuary/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *matchDomainImpl) threshold(override *float64) (float64, error) {
	if override == nil {
		return s.matcher.Threshold(), nil
	}
	t := *override
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return 0, face.ErrInvalidThreshold
	}
	return t, nil
}

func (s *matchDomainImpl) Compare(ctx context.Context, req face.CompareRequest) (face.CompareResponse, error) {
	threshold, err := s.threshold(req.Threshold)
	if err != nil {
		return face.CompareResponse{}, err
	}

	a, b := entity.FaceDescriptor(req.A), entity.FaceDescriptor(req.B)
	if a.Validate() != nil || b.Validate() != nil {
		return face.CompareResponse{}, face.ErrInvalidDescriptor
	}

	distance := biometric.Distance(a, b)

	logrus.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"distance":   distance,
		"threshold":  threshold,
	}).Debug("Compared face descriptors")

	return face.CompareResponse{
		Match:     biometric.CompareWithThreshold(a, b, threshold),
		Distance:  face.FiniteOrNil(distance),
		Threshold: threshold,
	}, nil
}

func (s *matchDomainImpl) Match(ctx context.Context, req face.MatchRequest) (face.MatchResponse, error) {
	threshold, err := s.threshold(req.Threshold)
	if err != nil {
		return face.MatchResponse{}, err
	}

	query := entity.FaceDescriptor(req.Descriptor)
	if err := query.Validate(); err != nil {
		return face.MatchResponse{}, face.ErrInvalidDescriptor
	}

	enrolled, err := s.enrolled.load(ctx, req.UserID)
	if err != nil {
		return face.MatchResponse{}, err
	}

	result := biometric.NearestMatchWithThreshold(query, enrolled, threshold)

	logrus.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"user_id":    req.UserID,
		"candidates": len(enrolled),
		"matched":    result.Matched,
	}).Info("Face match evaluated")

	return face.NewMatchResponse(result), nil
}

// Login identifies the face among every enrolled user and signs an access token for the match.
func (s *matchDomainImpl) Login(ctx context.Context, req face.LoginRequest) (face.LoginResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query := entity.FaceDescriptor(req.Descriptor)
	if err := query.Validate(); err != nil {
		return face.LoginResponse{}, face.ErrInvalidDescriptor
	}

	enrolled, err := s.enrolled.load(ctx, "")
	if err != nil {
		return face.LoginResponse{}, err
	}

	result := s.matcher.NearestMatch(query, enrolled)
	if !result.Matched {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"candidates": len(enrolled),
		}).Warn("Face login rejected")
		return face.LoginResponse{}, face.ErrFaceNotRecognized
	}

	token, expired, err := jwtPkg.SignUser(entity.UserLoginData{
		ID:       result.UserID,
		Username: result.Label,
	}, jwtPkg.MethodFace, s.tokenTTL)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to sign token")
		return face.LoginResponse{}, err
	}

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    result.UserID,
	}).Info("Face login succeeded")

	return face.LoginResponse{
		AccessToken:      token,
		ExpiresInMinutes: time.Until(time.Unix(expired, 0)).Minutes(),
		UserID:           result.UserID,
		Label:            result.Label,
		Distance:         result.Distance,
	}, nil
}
