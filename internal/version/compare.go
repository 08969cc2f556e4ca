package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// devBuild disables the compatibility check.
const devBuild = "main"

// CheckConfigCompatibility reports whether an engine at engineVersion can run a config
// written for configVersion. The engine must share the config's major version and be
// at least as new:
//   - config 1.2.0, engine 1.2.0 or 1.4.1 -> OK
//   - config 1.3.0, engine 1.2.9 -> error (config uses newer features)
//   - config 1.2.0, engine 2.0.0 -> error (major differs)
//
// An empty config version or a "main" build on either side skips the check.
func CheckConfigCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || engineVersion == devBuild || configVersion == devBuild {
		return nil
	}

	engine, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid engine version %q", engineVersion)
	}

	constraint, err := semver.NewConstraint("^" + configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid config engine_version %q", configVersion)
	}

	if !constraint.Check(engine) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"config written for engine %s cannot run on engine %s", configVersion, engineVersion)
	}

	return nil
}
