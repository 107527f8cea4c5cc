package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classes(vs []Violation) []ConstraintClass {
	out := make([]ConstraintClass, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Class)
	}
	return out
}

func baseline(t *testing.T) (*Snapshot, *Pool) {
	t.Helper()
	pool := newPool(speakers(8), judges(2))
	snap := solve(t, pool, DefaultOptions())
	require.Empty(t, Validate(snap, pool, DefaultOptions()))
	return snap, pool
}

func TestValidate_Duplicate(t *testing.T) {
	snap, pool := baseline(t)
	snap.Benched = append(snap.Benched, snap.Rooms[0].Teams[0].Speakers[0])

	assert.Contains(t, classes(Validate(snap, pool, DefaultOptions())), ClassDuplicate)
}

func TestValidate_WithdrawnSignup(t *testing.T) {
	snap, pool := baseline(t)
	gone := snap.Rooms[0].Teams[1].Speakers[1]
	var kept []Participant
	for _, p := range pool.Participants {
		if p.MemberID != gone {
			kept = append(kept, p)
		}
	}
	pool.Participants = kept

	vs := Validate(snap, pool, DefaultOptions())
	require.Len(t, vs, 1)
	assert.Equal(t, ClassUnknown, vs[0].Class)
	assert.Equal(t, gone, vs[0].MemberID)
}

func TestValidate_NewSpeakerNotCovered(t *testing.T) {
	snap, pool := baseline(t)
	pool.Participants = append(pool.Participants, Participant{MemberID: "late", AsSpeaker: true})

	assert.Equal(t, []ConstraintClass{ClassCoverage}, classes(Validate(snap, pool, DefaultOptions())))
}

func TestValidate_RoleMismatch(t *testing.T) {
	snap, pool := baseline(t)
	for i := range pool.Participants {
		if pool.Participants[i].MemberID == snap.Rooms[0].Judges[1].MemberID {
			pool.Participants[i].AsJudge = false
		}
	}
	assert.Equal(t, []ConstraintClass{ClassRole}, classes(Validate(snap, pool, DefaultOptions())))
}

func TestValidate_NewClash(t *testing.T) {
	snap, pool := baseline(t)
	team := snap.Rooms[0].Teams[2]
	pool.History.Add(team.Speakers[0], team.Speakers[1], RelationTeammate)

	assert.Equal(t, []ConstraintClass{ClassClash}, classes(Validate(snap, pool, DefaultOptions())))
}

func TestValidate_OverBenched(t *testing.T) {
	pool := newPool(speakers(16), judges(4))
	snap := solve(t, pool, DefaultOptions())
	require.Empty(t, Validate(snap, pool, DefaultOptions()))

	for _, team := range snap.Rooms[1].Teams {
		snap.Benched = append(snap.Benched, team.Speakers...)
	}
	dropped := snap.Rooms[1].Judges
	snap.Rooms = snap.Rooms[:1]

	vs := Validate(snap, pool, DefaultOptions())
	assert.Contains(t, classes(vs), ClassBench)
	uncovered := make(map[string]bool)
	for _, v := range vs {
		if v.Class == ClassCoverage {
			uncovered[v.MemberID] = true
		}
	}
	for _, j := range dropped {
		assert.True(t, uncovered[j.MemberID], "judge %s should be reported", j.MemberID)
	}

	loose := DefaultOptions()
	loose.MaxBenched = 8
	assert.NotContains(t, classes(Validate(snap, pool, loose)), ClassBench)
}

func TestValidate_JudgeNotPlaced(t *testing.T) {
	snap, pool := baseline(t)
	pool.Participants = append(pool.Participants, Participant{MemberID: "late-judge", AsJudge: true})

	vs := Validate(snap, pool, DefaultOptions())
	require.Len(t, vs, 1)
	assert.Equal(t, ClassCoverage, vs[0].Class)
	assert.Equal(t, "late-judge", vs[0].MemberID)
}

func TestValidateStructure(t *testing.T) {
	snap, _ := baseline(t)

	snap.Rooms[0].Judges[1].Status = StatusChair
	snap.Rooms[0].Teams[3].Position = 0
	snap.Rooms[0].Teams[1].Speakers = snap.Rooms[0].Teams[1].Speakers[:1]

	got := classes(ValidateStructure(snap))
	assert.Contains(t, got, ClassChair)
	assert.Contains(t, got, ClassPosition)
	assert.Contains(t, got, ClassTeamSize)
}

func TestValidateStructure_NoRooms(t *testing.T) {
	snap := &Snapshot{Format: bp}
	assert.Equal(t, []ConstraintClass{ClassRoomSize}, classes(ValidateStructure(snap)))
}

func TestEdit_MoveSpeakerSwaps(t *testing.T) {
	snap, pool := baseline(t)
	a := snap.Rooms[0].Teams[0].Speakers[0]
	b := snap.Rooms[0].Teams[3].Speakers[1]

	require.NoError(t, snap.MoveSpeaker(a, 0, 3, 1))

	assert.Equal(t, b, snap.Rooms[0].Teams[0].Speakers[0])
	assert.Equal(t, a, snap.Rooms[0].Teams[3].Speakers[1])
	assert.Empty(t, Validate(snap, pool, DefaultOptions()))
}

func TestEdit_MoveSpeakerToBenchBreaksTeam(t *testing.T) {
	snap, _ := baseline(t)
	a := snap.Rooms[0].Teams[0].Speakers[0]

	require.NoError(t, snap.MoveSpeaker(a, BenchRoom, 0, 0))

	assert.Contains(t, snap.Benched, a)
	assert.Contains(t, classes(ValidateStructure(snap)), ClassTeamSize)
}

func TestEdit_MoveJudgeAsChair(t *testing.T) {
	snap, pool := baseline(t)
	oldChair := snap.Rooms[0].Judges[0].MemberID
	panelist := snap.Rooms[0].Judges[1].MemberID

	require.NoError(t, snap.MoveJudge(panelist, 0, StatusChair))

	assert.Equal(t, []Judge{
		{MemberID: panelist, Status: StatusChair},
		{MemberID: oldChair, Status: StatusPanelist},
	}, snap.Rooms[0].Judges)
	assert.Empty(t, Validate(snap, pool, DefaultOptions()))
}

func TestEdit_UnknownMember(t *testing.T) {
	snap, _ := baseline(t)
	assert.ErrorIs(t, snap.SwapSpeakers("nobody", snap.Rooms[0].Teams[0].Speakers[0]), ErrMemberNotPlaced)
	assert.ErrorIs(t, snap.MoveJudge("nobody", 0, StatusPanelist), ErrMemberNotPlaced)
}

func TestClone_Independent(t *testing.T) {
	snap, _ := baseline(t)
	c := snap.Clone()
	c.Rooms[0].Teams[0].Speakers[0] = "changed"
	assert.NotEqual(t, "changed", snap.Rooms[0].Teams[0].Speakers[0])
}
