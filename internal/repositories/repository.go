package repositories

import "context"

// Repository aggregates every table-level repository of the service.
// Sub-repositories returned from inside WithTransaction share the transaction.
type Repository interface {
	Video() VideoRepository
	Exam() ExamRepository
	Question() QuestionRepository
	ExamResult() ExamResultRepository

	User() UserRepository
	Education() EducationRepository
	Membership() MembershipRepository

	GuestApplication() GuestApplicationRepository

	// WithTransaction runs fn in one transaction; any returned error rolls back everything fn did.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
