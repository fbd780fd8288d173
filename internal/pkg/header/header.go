// Package header renders the WiFi_Info.h header a logger's firmware compiles in.
package header

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/types"
)

// FileName is the name the firmware sketches include the header by.
const FileName = "WiFi_Info.h"

var headerTemplate = template.Must(template.New(FileName).Funcs(template.FuncMap{
	"cstr": cString,
	"addr": addressArgs,
}).Parse(`// WiFi information ({{ .Name }})
// Generated by logger-netcfg, do not edit.
const char* ssid     = {{ cstr .WiFi.SSID }};
const char* password = {{ cstr .WiFi.Password }};
{{- if .Server }}

#define SERVER_IP_OR_HOSTNAME {{ cstr .Server }}
{{- end }}
{{- with .Static }}

IPAddress local_IP({{ addr .IP }}); // Static IP
{{- if not .Gateway.IsZero }}
IPAddress gateway({{ addr .Gateway }}); // Router IP
{{- end }}
IPAddress subnet({{ addr .Subnet }});
{{- if not .PrimaryDNS.IsZero }}
IPAddress primaryDNS({{ addr .PrimaryDNS }}); // optional
{{- end }}
{{- if not .SecondaryDNS.IsZero }}
IPAddress secondaryDNS({{ addr .SecondaryDNS }}); // optional
{{- end }}
{{- end }}
`))

type headerData struct {
	Name string
	config.LoggerConfig
}

// Render writes the header for the named logger to w.
func Render(w io.Writer, name string, logger config.LoggerConfig) error {
	if err := headerTemplate.Execute(w, headerData{Name: name, LoggerConfig: logger}); err != nil {
		return fmt.Errorf("failed to render header for logger %s: %w", name, err)
	}
	return nil
}

// cString quotes s as a C string literal.
func cString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c > 0x7e:
			// Split the literal so a following hex digit is not absorbed.
			fmt.Fprintf(&b, `\x%02x""`, c)
		case c == '?' && i+1 < len(s) && s[i+1] == '?':
			// Avoid forming trigraphs.
			b.WriteString(`\?`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func addressArgs(a types.IPv4) string {
	o := a.Octets()
	return fmt.Sprintf("%d, %d, %d, %d", o[0], o[1], o[2], o[3])
}
