package database

import (
	"testing"
	"time"

	"chessclass/models"

	"github.com/stretchr/testify/assert"
)

func TestStudentRowMapping(t *testing.T) {
	born := time.Date(2012, time.March, 4, 0, 0, 0, 0, time.UTC)
	s := models.Student{
		Name: "Ana Soto", RUT: "11.111.111-1", BirthDate: &born, Course: "3A", School: "Club",
		NationalElo: 1200, FideElo: 1100, Section: "A", ClassPrice: 25000, MonthlyPrice: 200000,
		ClassesPerWeek: 2, Phone: "+56 9", Email: "ana@example.com", GuardianEmail: "mom@example.com",
	}

	row := studentFromModel(s)
	assert.Equal(t, "11.111.111-1", row.RUT)
	assert.Equal(t, s, row.toModel())

	s.RUT = " 11.111.111-1 "
	assert.Equal(t, "11.111.111-1", studentFromModel(s).RUT)
}

func TestNormalizeRUT(t *testing.T) {
	cases := map[string]string{
		"11-1":     "11-1",
		"  11-1 ":  "11-1",
		"\t22-2\n": "22-2",
		"   ":      "",
	}
	for in, want := range cases {
		if got := NormalizeRUT(in); got != want {
			t.Fatalf("NormalizeRUT(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateDay(t *testing.T) {
	in := time.Date(2024, time.May, 1, 18, 30, 0, 0, time.FixedZone("CLT", -4*3600))
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), truncateDay(in))
}
