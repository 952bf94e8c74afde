package ldap

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

// defaultKrb5Conf is consulted when no Kerberos configuration path is set.
const defaultKrb5Conf = "/etc/krb5.conf"

// bindGSSAPI authenticates the connected transport with a GSSAPI bind.
// The identifier is the Kerberos principal name; it is not DN-resolved.
func (c *Connection) bindGSSAPI(ep *Endpoint, identifier, secret string) error {
	client, err := c.gssapiClient(identifier, secret)
	if err != nil {
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = client.DeleteSecContext()
	}()

	spn := "ldap/" + strings.ToLower(ep.Host)
	if err := c.conn.GSSAPIBind(client, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}

	return nil
}

// gssapiClient builds a GSSAPI client from the configured credential source,
// in priority order: credential cache, keytab, password.
func (c *Connection) gssapiClient(identifier, secret string) (ldap.GSSAPIClient, error) {
	cfg := c.config

	krb5conf := cfg.KerberosConfig
	if krb5conf == "" {
		krb5conf = defaultKrb5Conf
	}
	if _, err := os.Stat(krb5conf); err != nil {
		return nil, fmt.Errorf("kerberos configuration not found at %s: %w", krb5conf, err)
	}

	switch {
	case cfg.KerberosCCache != "":
		return gssapi.NewClientFromCCache(cfg.KerberosCCache, krb5conf, krb5client.DisablePAFXFAST(true))
	case cfg.KerberosKeytab != "":
		return gssapi.NewClientWithKeytab(identifier, cfg.KerberosRealm, cfg.KerberosKeytab, krb5conf, krb5client.DisablePAFXFAST(true))
	default:
		return gssapi.NewClientWithPassword(identifier, cfg.KerberosRealm, secret, krb5conf, krb5client.DisablePAFXFAST(true))
	}
}
