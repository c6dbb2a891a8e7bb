//go:build unit || !integration

package version_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	cmdtesting "github.com/B3Pay/ic-reactor-sub004/cmd/testing"
	"github.com/B3Pay/ic-reactor-sub004/pkg/version"
)

type VersionSuite struct {
	cmdtesting.BaseSuite
}

func TestVersionSuite(t *testing.T) {
	suite.Run(t, new(VersionSuite))
}

func (s *VersionSuite) TestTable() {
	_, out, err := cmdtesting.ExecuteTestCobraCommand("version")
	s.Require().NoError(err)
	s.Contains(out, "VERSION")
	s.Contains(out, version.Get().GitVersion)
}

func (s *VersionSuite) TestJSON() {
	_, out, err := cmdtesting.ExecuteTestCobraCommand("version", "--output", "json")
	s.Require().NoError(err)

	var info version.BuildVersionInfo
	s.Require().NoError(json.Unmarshal([]byte(out), &info))
	s.Equal(version.Get().GitVersion, info.GitVersion)
	s.NotEmpty(info.GOOS)
}
