package jobx

import "github.com/Abraxas-365/jobsched/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrAdmissionRejected = jobxErrors.Register("ADMISSION_REJECTED", errx.TypeUnavailable, 503, "Circuit breaker is open, job rejected")
	ErrBackpressure      = jobxErrors.Register("BACKPRESSURE", errx.TypeUnavailable, 429, "Pending queue is at capacity")
	ErrJobNotFound       = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrProcessingFailed  = jobxErrors.Register("PROCESSING_FAILED", errx.TypeExternal, 502, "Job processing failed")
	ErrTimeout           = jobxErrors.Register("TIMEOUT", errx.TypeTimeout, 504, "Job exceeded its timeout")
	ErrCancelled         = jobxErrors.Register("CANCELLED", errx.TypeConflict, 409, "Job was cancelled")
	ErrNoProcessor       = jobxErrors.Register("NO_PROCESSOR", errx.TypeValidation, 400, "No processor registered for job type")
	ErrInvalidJob        = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Invalid job definition")
	ErrDuplicateJob      = jobxErrors.Register("DUPLICATE_JOB", errx.TypeConflict, 409, "A live job with this id already exists")
	ErrNotCancellable    = jobxErrors.Register("NOT_CANCELLABLE", errx.TypeConflict, 409, "Job already reached a terminal state")
	ErrAlreadyRunning    = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Scheduler is already running")
	ErrShutdownTimeout   = jobxErrors.Register("SHUTDOWN_TIMEOUT", errx.TypeInternal, 500, "Graceful shutdown timed out")
)
