package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodomat/fieldsync/internal/client/storage"
	"github.com/vodomat/fieldsync/pkg/api"
)

func TestCli_runTwoFactorSetup(t *testing.T) {
	sessions := &memSession{session: &storage.Session{
		UserID:      "u1",
		AccessToken: "full-token",
	}}
	mockIO := &ioMock{inputs: []string{"123456"}}

	var enabled api.EnableTwoFactorRequest
	mockAPI := &apiMock{
		setupFunc: func(ctx context.Context, token string) (*api.SetupTwoFactorResponse, error) {
			assert.Equal(t, "full-token", token)
			return &api.SetupTwoFactorResponse{
				Success:     true,
				Secret:      "JBSWY3DPEHPK3PXP",
				QRCode:      "data:image/png;base64,abc",
				BackupCodes: []string{"AB12CD34", "EF56GH78"},
			}, nil
		},
		enableFunc: func(ctx context.Context, token string, req api.EnableTwoFactorRequest) (*api.EnableTwoFactorResponse, error) {
			enabled = req
			return &api.EnableTwoFactorResponse{Success: true}, nil
		},
	}

	cli := &Cli{io: mockIO, apiClient: mockAPI, sessions: sessions, logger: testLogger()}

	err := cli.runTwoFactorSetup(context.Background())
	require.NoError(t, err)

	// The confirmed secret and codes from setup are what gets enabled.
	assert.Equal(t, "123456", enabled.Token)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", enabled.Secret)
	assert.Equal(t, []string{"AB12CD34", "EF56GH78"}, enabled.BackupCodes)

	assert.True(t, sessions.session.TwoFactorEnabled)

	output := mockIO.output()
	assert.Contains(t, output, "JBSWY3DPEHPK3PXP")
	assert.Contains(t, output, "AB12CD34")
	assert.Contains(t, output, "now enabled")
}

func TestCli_runTwoFactorSetup_NotLoggedIn(t *testing.T) {
	cli := &Cli{io: &ioMock{}, apiClient: &apiMock{}, sessions: &memSession{}, logger: testLogger()}

	err := cli.runTwoFactorSetup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestCli_runTwoFactorDisable(t *testing.T) {
	sessions := &memSession{session: &storage.Session{
		UserID:           "u1",
		AccessToken:      "full-token",
		TwoFactorEnabled: true,
	}}
	mockIO := &ioMock{inputs: []string{"654321"}}

	mockAPI := &apiMock{
		disableFunc: func(ctx context.Context, token string, req api.DisableTwoFactorRequest) (*api.DisableTwoFactorResponse, error) {
			assert.Equal(t, "654321", req.Token)
			return &api.DisableTwoFactorResponse{Success: true}, nil
		},
	}

	cli := &Cli{io: mockIO, apiClient: mockAPI, sessions: sessions, logger: testLogger()}

	err := cli.runTwoFactorDisable(context.Background())
	require.NoError(t, err)
	assert.False(t, sessions.session.TwoFactorEnabled)
}

func TestCli_runTwoFactor_UnknownSubcommand(t *testing.T) {
	cli := &Cli{io: &ioMock{}, logger: testLogger()}

	err := cli.runTwoFactor(context.Background(), []string{"bogus"})
	require.Error(t, err)
}
