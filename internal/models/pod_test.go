package models

import (
	"testing"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPod(total, assigned int) *Pod {
	return &Pod{ID: "p1", Name: "P1", TotalLicenses: total, AssignedLicenses: assigned, AvailableLicenses: total - assigned}
}

func TestPod_SetTotalLicenses(t *testing.T) {
	pod := newPod(10, 4)

	require.NoError(t, pod.SetTotalLicenses(6))

	assert.Equal(t, 6, pod.TotalLicenses)
	assert.Equal(t, 2, pod.AvailableLicenses)
	assert.NoError(t, pod.CheckConsistency())
}

func TestPod_SetTotalLicenses_BelowAssigned(t *testing.T) {
	pod := newPod(10, 4)
	before := *pod

	err := pod.SetTotalLicenses(3)

	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "cannot set total below 4")
	assert.Equal(t, before, *pod)
}

func TestPod_SetTotalLicenses_EqualToAssigned(t *testing.T) {
	pod := newPod(10, 4)

	require.NoError(t, pod.SetTotalLicenses(4))

	assert.Equal(t, 0, pod.AvailableLicenses)
}

func TestPod_SetTotalLicenses_Negative(t *testing.T) {
	pod := newPod(0, 0)

	err := pod.SetTotalLicenses(-1)

	assert.True(t, apperr.IsValidation(err))
}

func TestPod_AddLicenses(t *testing.T) {
	pod := newPod(5, 5)

	require.NoError(t, pod.AddLicenses(3))

	assert.Equal(t, 8, pod.TotalLicenses)
	assert.Equal(t, 3, pod.AvailableLicenses)
	assert.NoError(t, pod.CheckConsistency())
}

func TestPod_AddLicenses_NonPositive(t *testing.T) {
	for _, delta := range []int{0, -2} {
		pod := newPod(5, 1)
		err := pod.AddLicenses(delta)
		assert.True(t, apperr.IsValidation(err))
		assert.Equal(t, 5, pod.TotalLicenses)
	}
}

func TestPod_Assign_WithinPool(t *testing.T) {
	pod := newPod(5, 0)

	require.NoError(t, pod.Assign(2))

	assert.Equal(t, 2, pod.AssignedLicenses)
	assert.Equal(t, 3, pod.AvailableLicenses)
	assert.NoError(t, pod.CheckConsistency())
}

func TestPod_Assign_BeyondPoolGrowsTotal(t *testing.T) {
	pod := newPod(5, 4)

	require.NoError(t, pod.Assign(3))

	assert.Equal(t, 7, pod.TotalLicenses)
	assert.Equal(t, 7, pod.AssignedLicenses)
	assert.Equal(t, 0, pod.AvailableLicenses)
	assert.NoError(t, pod.CheckConsistency())
}

func TestPod_Release(t *testing.T) {
	pod := newPod(5, 3)

	pod.Release(2)

	assert.Equal(t, 1, pod.AssignedLicenses)
	assert.Equal(t, 4, pod.AvailableLicenses)
	assert.NoError(t, pod.CheckConsistency())
}

func TestPod_Release_FlooredAtZero(t *testing.T) {
	pod := newPod(5, 1)

	pod.Release(4)

	assert.Equal(t, 0, pod.AssignedLicenses)
	assert.Equal(t, 5, pod.AvailableLicenses)
}

func TestPod_CheckConsistency_Breach(t *testing.T) {
	pod := &Pod{ID: "p1", TotalLicenses: 5, AssignedLicenses: 3, AvailableLicenses: 3}

	assert.True(t, apperr.IsIntegrity(pod.CheckConsistency()))
}

func TestPod_ParentID(t *testing.T) {
	parent := "root"
	child := &Pod{ID: "c", ParentPodID: &parent}

	assert.Equal(t, "root", child.ParentID())
	assert.False(t, child.IsRoot())
	assert.True(t, (&Pod{ID: "r"}).IsRoot())
}
