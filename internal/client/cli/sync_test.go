package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
)

func TestCli_runSync_Success(t *testing.T) {
	mockIO := &ioMock{}
	cli := &Cli{
		io: mockIO,
		syncSvc: &stubSync{result: &clientsync.SyncResult{
			PushedTickets: 2,
			PulledTickets: 3,
			PulledUsers:   4,
			KeptLocal:     1,
		}},
		logger: testLogger(),
	}

	err := cli.runSync(context.Background())
	require.NoError(t, err)

	output := mockIO.output()
	assert.Contains(t, output, "Sync complete!")
	assert.Contains(t, output, "Pushed tickets: 2")
	assert.Contains(t, output, "Pulled tickets: 3")
	assert.Contains(t, output, "Pulled users:   4")
	assert.Contains(t, output, "Kept local:     1")
}

func TestCli_runSync_Failure(t *testing.T) {
	mockIO := &ioMock{}
	cli := &Cli{
		io:      mockIO,
		syncSvc: &stubSync{syncErr: errors.New("server unreachable")},
		logger:  testLogger(),
	}

	err := cli.runSync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server unreachable")
}
