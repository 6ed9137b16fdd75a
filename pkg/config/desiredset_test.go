package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubinix-warun/suibase/pkg/types"
)

func TestPackagesConfig_MostRecentInstanceWins(t *testing.T) {
	pc := NewPackagesConfig()

	older := types.PackageIdentity{PackageID: "aaa", PackageUUID: "u1", PackageName: "n", PackageTimestamp: "100"}
	newer := types.PackageIdentity{PackageID: "bbb", PackageUUID: "u1", PackageName: "n", PackageTimestamp: "200"}

	require.True(t, pc.AddInstance(older))
	require.True(t, pc.AddInstance(newer))

	instances := pc.IterMostRecentPackageInstance()
	require.Len(t, instances, 1)
	assert.Equal(t, "bbb", instances[0].PackageID)

	assert.True(t, pc.IsMostRecent("u1", "200"))
	assert.False(t, pc.IsMostRecent("u1", "100"))
}

func TestPackagesConfig_DuplicateInstanceIgnored(t *testing.T) {
	pc := NewPackagesConfig()
	pkg := types.PackageIdentity{PackageID: "aaa", PackageUUID: "u1", PackageTimestamp: "100"}

	require.True(t, pc.AddInstance(pkg))
	require.False(t, pc.AddInstance(pkg))

	assert.Len(t, pc.IterMostRecentPackageInstance(), 1)
}

func TestPackagesConfig_RemoveUUID(t *testing.T) {
	pc := NewPackagesConfig()
	pc.AddInstance(types.PackageIdentity{PackageUUID: "u1", PackageTimestamp: "1"})
	pc.RemoveUUID("u1")

	assert.Empty(t, pc.IterMostRecentPackageInstance())
	assert.False(t, pc.IsMostRecent("u1", "1"))
}

func TestPackagesConfig_UnknownUUIDNotMostRecent(t *testing.T) {
	pc := NewPackagesConfig()
	assert.False(t, pc.IsMostRecent("missing", "1"))
}
