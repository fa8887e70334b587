package focusService

import (
	"sync"
	"time"

	"StudySanctuary/internal/api/focus"
	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/camera"
	focusPkg "StudySanctuary/pkg/focus"
	"StudySanctuary/pkg/redis"
	"StudySanctuary/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type FocusService interface {
	StartSession(ctx context.Context, userID string) (*LiveSession, error)
	Process(ctx context.Context, live *LiveSession, landmarks *entity.LandmarkSet) (entity.FocusFrame, bool)
	ProcessFrame(ctx context.Context, live *LiveSession, frame []byte) (entity.FocusFrame, bool, error)
	StopSession(ctx context.Context, live *LiveSession) (entity.FocusSessionSummary, error)
	GetSession(ctx context.Context, id string) (entity.FocusSessionSummary, error)
	Evaluate(ctx context.Context, msg focus.LandmarkMessage) (focus.EvaluateResponse, error)
}

type Config struct {
	Classifier *focusPkg.Classifier
	SummaryTTL time.Duration
}

type focusService struct {
	log         *logrus.Logger
	redisServer redis.IRedis
	device      camera.Device
	utils       utils.IUtils
	classifier  *focusPkg.Classifier
	summaryTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]*LiveSession
}

func New(log *logrus.Logger,
	redisServer redis.IRedis,
	device camera.Device,
	utils utils.IUtils,
	cfg Config,
) FocusService {
	if cfg.Classifier == nil {
		cfg.Classifier, _ = focusPkg.NewClassifier(focusPkg.DefaultThresholds())
	}
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = 24 * time.Hour
	}

	return &focusService{
		log:         log,
		redisServer: redisServer,
		device:      device,
		utils:       utils,
		classifier:  cfg.Classifier,
		summaryTTL:  cfg.SummaryTTL,
		sessions:    make(map[string]*LiveSession),
	}
}
