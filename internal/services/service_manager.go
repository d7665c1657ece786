package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/atknylmz/Urtim-server/internal/events"
	"github.com/atknylmz/Urtim-server/internal/repositories"
	"github.com/atknylmz/Urtim-server/internal/utils"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// PublicBaseURL prefixes generated stream URLs; empty means request host.
	PublicBaseURL  string
	DefaultTimeout time.Duration
}

func (c *ServiceManagerConfig) Validate() error {
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("default timeout must be positive")
	}
	if c.PublicBaseURL != "" && !strings.HasPrefix(c.PublicBaseURL, "http") {
		return fmt.Errorf("public base url must be absolute: %q", c.PublicBaseURL)
	}
	return nil
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	tokens    *utils.TokenManager
	config    ServiceManagerConfig

	// Service instances
	videoService            VideoService
	examService             ExamService
	examResultService       ExamResultService
	userService             UserService
	authService             AuthService
	guestApplicationService GuestApplicationService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, tokens *utils.TokenManager, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		tokens:    tokens,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, tokens *utils.TokenManager) ServiceManager {
	return NewServiceManager(repo, logger, validator, publisher, tokens, ServiceManagerConfig{
		DefaultTimeout: 30 * time.Second,
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.config.Validate(); err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}
	if sm.tokens == nil {
		return fmt.Errorf("token manager is required")
	}

	base := sm.config.PublicBaseURL
	sm.videoService = NewVideoService(sm.repo, sm.logger, sm.validator, sm.publisher, base)
	sm.examService = NewExamService(sm.repo, sm.logger, sm.validator, sm.publisher, base)
	sm.examResultService = NewExamResultService(sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.userService = NewUserService(sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.authService = NewAuthService(sm.repo, sm.logger, sm.validator, sm.tokens)
	sm.guestApplicationService = NewGuestApplicationService(sm.repo, sm.logger, sm.validator)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) mustBeReady(name string, svc any) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if svc == nil {
		panic(name + " service not initialized")
	}
}

// Service getters
func (sm *serviceManager) Video() VideoService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("video", sm.videoService)
	return sm.videoService
}

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("exam", sm.examService)
	return sm.examService
}

func (sm *serviceManager) ExamResult() ExamResultService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("exam result", sm.examResultService)
	return sm.examResultService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("user", sm.userService)
	return sm.userService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("auth", sm.authService)
	return sm.authService
}

func (sm *serviceManager) GuestApplication() GuestApplicationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("guest application", sm.guestApplicationService)
	return sm.guestApplicationService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown closes the event publisher. The repository is owned by its manager.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")
	return nil
}
