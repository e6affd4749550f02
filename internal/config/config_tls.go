package config

import "fmt"

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	if err := validateTLS(c.Server.TLS); err != nil {
		return invalid("TLS configuration error: " + err.Error())
	}
	return nil
}

func validateTLS(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}

	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		return validateKeyPair(tls, "server mode")
	case "mutual":
		if err := validateKeyPair(tls, "mutual mode"); err != nil {
			return err
		}
		if err := pemSource("CA certificate", "caFile", "caContent", tls.CAFile, tls.CAContent); err != nil {
			return err
		}
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
			return nil
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
}

func validateKeyPair(tls TLSConfig, mode string) error {
	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	if err := pemSource("certificate", "certFile", "certContent", tls.CertFile, tls.CertContent); err != nil {
		return err
	}
	return pemSource("key", "keyFile", "keyContent", tls.KeyFile, tls.KeyContent)
}

// pemSource requires exactly one of a file path or inline content
func pemSource(what, fileField, contentField, file, content string) error {
	switch {
	case file == "" && content == "":
		return fmt.Errorf("%s is required (provide either %s or %s)", what, fileField, contentField)
	case file != "" && content != "":
		return fmt.Errorf("cannot specify both %s and %s - choose one", fileField, contentField)
	}
	return nil
}
