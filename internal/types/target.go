package types

import (
	"errors"
	"strings"
)

// Deployment of the grading service a submission is sent to
type Environment string

const (
	EnvironmentLocal       Environment = "local"
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// Grading backend a submission is evaluated by
type Provider string

const (
	ProviderGT      Provider = "gt"
	ProviderUdacity Provider = "udacity"
)

var (
	Environments = []Environment{
		EnvironmentLocal,
		EnvironmentDevelopment,
		EnvironmentStaging,
		EnvironmentProduction,
	}
	Providers = []Provider{ProviderGT, ProviderUdacity}
)

func toEnvironment(v string) (Environment, error) {
	vEnvironment := Environment(v)
	for _, e := range Environments {
		if e == vEnvironment {
			return vEnvironment, nil
		}
	}

	return "", errors.New(`must be one of "local", "development", "staging" or "production"`)
}

func (e Environment) String() string {
	return string(e)
}

func (e *Environment) Set(v string) error {
	vEnvironment, err := toEnvironment(strings.ToLower(v))
	if err != nil {
		return err
	}

	*e = vEnvironment
	return nil
}

// Allow use as a cobra flag
func (*Environment) Type() string {
	return "Environment"
}

func toProvider(v string) (Provider, error) {
	vProvider := Provider(v)
	switch vProvider {
	case ProviderGT, ProviderUdacity:
		return vProvider, nil
	default:
		return "", errors.New(`must be one of "gt" or "udacity"`)
	}
}

func (p Provider) String() string {
	return string(p)
}

func (p *Provider) Set(v string) error {
	vProvider, err := toProvider(strings.ToLower(v))
	if err != nil {
		return err
	}

	*p = vProvider
	return nil
}

// Allow use as a cobra flag
func (*Provider) Type() string {
	return "Provider"
}
