package call

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/calltracker/adapter/cli/clitest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2030-03-11 is a Monday.
const oneCall = `{"employees": [{"name": "Laura Verdi", "department": "HR"}],
  "calls": [{"employee": "Laura Verdi", "scheduledAt": "2030-03-11T10:00:00Z"}]}`

const overlappingCalls = `{"employees": [
    {"name": "Laura Verdi", "department": "HR"},
    {"name": "Mario Rossi", "department": "Sales"}
  ],
  "calls": [
    {"employee": "Laura Verdi", "scheduledAt": "2030-03-11T10:00:00Z"},
    {"employee": "Mario Rossi", "scheduledAt": "2030-03-11T10:40:00Z"},
    {"employee": "Mario Rossi", "scheduledAt": "2030-03-12T15:00:00Z"}
  ]}`

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestSlotCmd(t *testing.T) {
	_, container := clitest.NewApp(t)
	clitest.Seed(t, container, oneCall)

	tests := []struct {
		name string
		at   string
		want string
	}{
		{name: "skips the booked call", at: "2030-03-11 10:10", want: "Mon 2030-03-11 11:00"},
		{name: "free time is kept", at: "2030-03-11T14:20:00Z", want: "Mon 2030-03-11 14:20"},
		{name: "free day before opening", at: "2030-03-12 07:00", want: "Tue 2030-03-12 10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slotAt = tt.at
			out, err := run(t, slotCmd)
			require.NoError(t, err)
			assert.Contains(t, out, "First available slot: "+tt.want)
		})
	}
}

func TestSlotCmd_InvalidInput(t *testing.T) {
	clitest.NewApp(t)
	t.Cleanup(func() { slotAt, slotExclude = "", "" })

	slotAt = ""
	_, err := run(t, slotCmd)
	assert.Error(t, err)

	slotAt = "next monday"
	_, err = run(t, slotCmd)
	assert.Error(t, err)

	slotAt = "2030-03-11 10:00"
	slotExclude = "call-1"
	_, err = run(t, slotCmd)
	assert.Error(t, err)
}

func TestCheckCmd(t *testing.T) {
	_, container := clitest.NewApp(t)
	clitest.Seed(t, container, oneCall)
	t.Cleanup(func() { checkAt = "" })

	checkAt = "2030-03-11 10:40"
	out, err := run(t, checkCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "conflicts with 1 calls")

	checkAt = "2030-03-11 10:55"
	out, err = run(t, checkCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "is free")
}

func TestCheckCmd_ExcludesCall(t *testing.T) {
	_, container := clitest.NewApp(t)
	clitest.Seed(t, container, oneCall)
	t.Cleanup(func() { checkAt, checkExclude = "", "" })

	calls, err := container.CallRepo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, calls, 1)

	checkAt = "2030-03-11 10:15"
	checkExclude = calls[0].ID().String()
	out, err := run(t, checkCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "is free")
}

func TestConflictsCmd(t *testing.T) {
	_, container := clitest.NewApp(t)

	out, err := run(t, conflictsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No conflicts.")

	clitest.Seed(t, container, overlappingCalls)

	out, err = run(t, conflictsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Conflict groups (1):")
	assert.Contains(t, out, "(2 calls)")
}

func TestExportCmd(t *testing.T) {
	_, container := clitest.NewApp(t)
	t.Cleanup(func() { exportFrom, exportDays, exportOutput = "", 7, "" })

	exportFrom = "2030-03-11"
	exportDays = 7
	out, err := run(t, exportCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No calls booked between 2030-03-11 and 2030-03-17.")

	clitest.Seed(t, container, oneCall)

	out, err = run(t, exportCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "Call HR: Laura Verdi")

	exportFrom = "2030-03-12"
	out, err = run(t, exportCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No calls booked")
}

func TestExportCmd_ToFile(t *testing.T) {
	_, container := clitest.NewApp(t)
	clitest.Seed(t, container, oneCall)
	t.Cleanup(func() { exportFrom, exportDays, exportOutput = "", 7, "" })

	exportFrom = "2030-03-10"
	exportDays = 2
	exportOutput = filepath.Join(t.TempDir(), "calls.ics")
	out, err := run(t, exportCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 calls to ")

	data, err := os.ReadFile(exportOutput)
	require.NoError(t, err)
	assert.Contains(t, string(data), "X-CALLTRACKER-EMPLOYEE:")
}

func TestExportCmd_InvalidInput(t *testing.T) {
	clitest.NewApp(t)
	t.Cleanup(func() { exportFrom, exportDays, exportOutput = "", 7, "" })

	exportFrom = "11/03/2030"
	_, err := run(t, exportCmd)
	assert.Error(t, err)

	exportFrom = ""
	exportDays = 0
	_, err = run(t, exportCmd)
	assert.Error(t, err)
}
