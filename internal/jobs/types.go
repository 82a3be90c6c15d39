package jobs

type JobType string

const (
	JobSendVerificationCode JobType = "send_verification_code"
	JobSendWelcome          JobType = "send_welcome"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobSendVerificationCode, JobSendWelcome:
		return true
	default:
		return false
	}
}
