// file: internals/features/normalize/service/marks_test.go
package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolsync_backend/internals/configs"
)

func testNormalizer() *Normalizer {
	cfg := &configs.Config{}
	cfg.Marks.NonGradeTokens.En = "effort"
	cfg.Marks.NonGradeTokens.Ru = "старание"
	return &Normalizer{Cfg: cfg}
}

func f64p(v float64) *float64 { return &v }

func TestAssessmentText(t *testing.T) {
	n := testNormalizer()

	t.Run("english effort labels", func(t *testing.T) {
		got := n.assessmentText("effort", f64p(6))
		require.NotNil(t, got)
		assert.Equal(t, "Excellent job!", *got)

		got = n.assessmentText("effort", f64p(1))
		require.NotNil(t, got)
		assert.Equal(t, "Could do better", *got)
	})

	t.Run("russian effort labels", func(t *testing.T) {
		got := n.assessmentText("старание", f64p(5))
		require.NotNil(t, got)
		assert.Equal(t, "Молодец!", *got)
	})

	t.Run("value rounds before lookup", func(t *testing.T) {
		got := n.assessmentText("effort", f64p(3.6))
		require.NotNil(t, got)
		assert.Equal(t, "Quite a progress", *got)
	})

	t.Run("out of range label is nil", func(t *testing.T) {
		assert.Nil(t, n.assessmentText("effort", f64p(9)))
		assert.Nil(t, n.assessmentText("effort", nil))
	})

	t.Run("graded scheme renders the number", func(t *testing.T) {
		got := n.assessmentText("", f64p(87.5))
		require.NotNil(t, got)
		assert.Equal(t, "87.5", *got)

		got = n.assessmentText("criteria", f64p(7))
		require.NotNil(t, got)
		assert.Equal(t, "7", *got)
	})

	t.Run("graded scheme without value is nil", func(t *testing.T) {
		assert.Nil(t, n.assessmentText("", nil))
	})
}

func TestProgrammeCode(t *testing.T) {
	cases := map[string]string{
		"IB Diploma":                      "IB",
		"International Baccalaureate":     "IB",
		"IPC":                             "IPC",
		"International Primary Curriculum": "IPC",
		"Pearson Edexcel":                 "PEARSON",
		"State programme":                 "STATE",
		"National curriculum":             "STATE",
		"":                                "",
		"Montessori":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ProgrammeCode(in), in)
	}
}

func TestResolveForm(t *testing.T) {
	known := map[int64]int{10: 40, 11: 60}

	t.Run("known numeric id becomes the reference", func(t *testing.T) {
		fid, raw := resolveForm("10", known)
		require.NotNil(t, fid)
		assert.Equal(t, int64(10), *fid)
		assert.Nil(t, raw)
	})

	t.Run("unknown numeric id stays raw text", func(t *testing.T) {
		fid, raw := resolveForm("99", known)
		assert.Nil(t, fid)
		require.NotNil(t, raw)
		assert.Equal(t, "99", *raw)
	})

	t.Run("free text stays raw text", func(t *testing.T) {
		fid, raw := resolveForm("Homework check", known)
		assert.Nil(t, fid)
		require.NotNil(t, raw)
		assert.Equal(t, "Homework check", *raw)
	})

	t.Run("blank resolves to nothing", func(t *testing.T) {
		fid, raw := resolveForm("", known)
		assert.Nil(t, fid)
		assert.Nil(t, raw)
	})
}

func TestResolveSubject(t *testing.T) {
	known := map[int64]bool{5: true}
	byTitle := map[string]int64{"Mathematics": 5, "Physics": 6}

	t.Run("known raw id wins", func(t *testing.T) {
		raw := int64(5)
		got := resolveSubject(&raw, "Physics", known, byTitle)
		require.NotNil(t, got)
		assert.Equal(t, int64(5), *got)
	})

	t.Run("unknown raw id falls back to title", func(t *testing.T) {
		raw := int64(42)
		got := resolveSubject(&raw, "Mathematics", known, byTitle)
		require.NotNil(t, got)
		assert.Equal(t, int64(5), *got)
	})

	t.Run("nothing resolves to nil", func(t *testing.T) {
		raw := int64(42)
		assert.Nil(t, resolveSubject(&raw, "Chemistry", known, byTitle))
		assert.Nil(t, resolveSubject(nil, "", known, byTitle))
	})
}

func TestClampWeightPct(t *testing.T) {
	assert.Equal(t, 0, clampWeightPct(-5))
	assert.Equal(t, 0, clampWeightPct(0))
	assert.Equal(t, 50, clampWeightPct(50))
	assert.Equal(t, 88, clampWeightPct(87.5))
	assert.Equal(t, 100, clampWeightPct(100))
	assert.Equal(t, 100, clampWeightPct(250))
}
