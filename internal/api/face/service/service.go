package faceService

import (
	"sync"
	"time"

	"StudySanctuary/internal/api/face"
	faceRepository "StudySanctuary/internal/api/face/repository"
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/biometric"
	"StudySanctuary/pkg/camera"
	"StudySanctuary/pkg/redis"
	"StudySanctuary/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type FaceService interface {
	Match() MatchDomain
	Enrollment() EnrollmentDomain
}

type MatchDomain interface {
	Compare(ctx context.Context, req face.CompareRequest) (face.CompareResponse, error)
	Match(ctx context.Context, req face.MatchRequest) (face.MatchResponse, error)
	Login(ctx context.Context, req face.LoginRequest) (face.LoginResponse, error)
}

type EnrollmentDomain interface {
	Start(ctx context.Context, user entity.UserLoginData, req face.StartEnrollmentRequest) (face.EnrollmentResponse, error)
	Capture(ctx context.Context, user entity.UserLoginData, id string, in face.CaptureInput) (face.EnrollmentResponse, error)
	Reset(ctx context.Context, user entity.UserLoginData, id string) (face.EnrollmentResponse, error)
	Cancel(ctx context.Context, user entity.UserLoginData, id string) (face.EnrollmentResponse, error)
	Status(ctx context.Context, user entity.UserLoginData, id string) (face.EnrollmentResponse, error)
}

type Config struct {
	Matcher          *biometric.Matcher
	Enrollment       biometric.EnrollmentConfig
	EnrolledCacheTTL time.Duration
	TokenTTL         time.Duration
	EnrollmentTTL    time.Duration
}

type faceService struct {
	matchDomain      MatchDomain
	enrollmentDomain EnrollmentDomain
}

func (f *faceService) Match() MatchDomain {
	return f.matchDomain
}

func (f *faceService) Enrollment() EnrollmentDomain {
	return f.enrollmentDomain
}

// enrolledSource reads enrolled descriptors through the redis cache.
type enrolledSource struct {
	log         *logrus.Logger
	repo        faceRepository.Repository
	redisServer redis.IRedis
	ttl         time.Duration
}

type matchDomainImpl struct {
	log      *logrus.Logger
	enrolled *enrolledSource
	matcher  *biometric.Matcher
	tokenTTL time.Duration
}

type enrollmentDomainImpl struct {
	log         *logrus.Logger
	repo        faceRepository.Repository
	redisServer redis.IRedis
	device      camera.Device
	utils       utils.IUtils
	cfg         biometric.EnrollmentConfig
	ttl         time.Duration
	now         func() time.Time

	mu          sync.Mutex
	enrollments map[string]*enrollment
}

func New(log *logrus.Logger,
	repo faceRepository.Repository,
	redisServer redis.IRedis,
	device camera.Device,
	utils utils.IUtils,
	cfg Config,
) FaceService {
	if cfg.Matcher == nil {
		cfg.Matcher, _ = biometric.NewMatcher(biometric.DefaultMatchThreshold)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.EnrollmentTTL <= 0 {
		cfg.EnrollmentTTL = 15 * time.Minute
	}

	enrolled := &enrolledSource{log: log, repo: repo, redisServer: redisServer, ttl: cfg.EnrolledCacheTTL}

	return &faceService{
		matchDomain: &matchDomainImpl{log: log, enrolled: enrolled, matcher: cfg.Matcher, tokenTTL: cfg.TokenTTL},
		enrollmentDomain: &enrollmentDomainImpl{
			log:         log,
			repo:        repo,
			redisServer: redisServer,
			device:      device,
			utils:       utils,
			cfg:         cfg.Enrollment,
			ttl:         cfg.EnrollmentTTL,
			now:         time.Now,
			enrollments: make(map[string]*enrollment),
		},
	}
}
