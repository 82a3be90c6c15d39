package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := SendVerificationCodePayload{
		UserID: "user-1",
		Email:  "ada@campus.edu",
		Name:   "Ada",
		Code:   "123456",
	}

	raw, err := EncodePayload(JobSendVerificationCode, in)
	require.NoError(t, err)

	out, err := DecodePayload(JobSendVerificationCode, raw)
	require.NoError(t, err)

	assert.Equal(t, in, out)
}

func TestEncodeRejectsMismatchedPayload(t *testing.T) {
	_, err := EncodePayload(JobSendVerificationCode, SendWelcomePayload{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrPayloadTypeMismatch)
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	_, err := EncodePayload(JobType("send_carrier_pigeon"), SendWelcomePayload{})
	assert.ErrorIs(t, err, ErrInvalidJobType)
}

func TestDecodeRejectsEmptyAndBadJSON(t *testing.T) {
	_, err := DecodePayload(JobSendWelcome, nil)
	assert.ErrorIs(t, err, ErrInvalidJobPayload)

	_, err = DecodePayload(JobSendWelcome, []byte("{nope"))
	assert.ErrorIs(t, err, ErrInvalidJobPayload)
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		t       JobType
		payload any
		wantErr error
	}{
		{
			name:    "valid_verification",
			t:       JobSendVerificationCode,
			payload: SendVerificationCodePayload{UserID: "u", Email: "a@b.c", Code: "123456"},
		},
		{
			name:    "missing_code",
			t:       JobSendVerificationCode,
			payload: SendVerificationCodePayload{UserID: "u", Email: "a@b.c"},
			wantErr: ErrInvalidJobPayload,
		},
		{
			name:    "valid_welcome_pointer",
			t:       JobSendWelcome,
			payload: &SendWelcomePayload{UserID: "u", Email: "a@b.c"},
		},
		{
			name:    "welcome_missing_email",
			t:       JobSendWelcome,
			payload: SendWelcomePayload{UserID: "u"},
			wantErr: ErrInvalidJobPayload,
		},
		{
			name:    "wrong_struct",
			t:       JobSendWelcome,
			payload: SendVerificationCodePayload{Email: "a@b.c", Code: "123456"},
			wantErr: ErrPayloadTypeMismatch,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.t, tt.payload)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
