// Package mail renders and delivers transactional email.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

const baseLayout = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
  <body style="margin: 0 auto; font-family: Helvetica, sans-serif; color: #333333; text-align: center; max-width: 520px; padding: 0 20px;">
    <div style="font-size: 16px; text-align: left;">
      <div style="line-height: 150%;">
        <div style="font-size: 20px;">Hi {{.Name}},</div>
        {{template "content" .}}
      </div>
      <div style="line-height: 150%;">
        <div style="color:#828282; margin: 15px 0 75px;">
          - The {{.ApplicationName}} Team
        </div>
      </div>
    </div>
  </body>
</html>{{end}}`

const validationContent = `{{define "content"}}
        <div style="margin: 15px 0;">
          Thanks for creating an {{.ApplicationName}} account. Please verify your email address by clicking the button below.
        </div>
        <div>
          <a href="{{.ValidationURL}}"
             style="background:#007bff; padding: 9px; width: 200px; color:#fff; text-decoration: none; display: inline-block; font-weight: bold; text-align: center; border-radius: 4px;"
          >Verify email address</a>
        </div>
        <div style="margin: 15px 0; color:#828282;">
          This link expires in {{.ExpiresIn}}.
        </div>{{end}}`

const apiKeyContent = `{{define "content"}}
        <div style="margin: 15px 0;">
          Your personal api key for {{.ApplicationName}} is
          <p><b>{{.APIKey}}</b></p>
        </div>
        <div style="margin: 15px 0;">
          In order to use it, it must be sent in the <b>{{.HeaderName}}</b> header.
        </div>
        <div style="margin: 15px 0;">
          You can request quotes for different symbols with the following url format:
          {{.RequestURL}}
          and pass the desired symbol in the request body with the format
          symbol=[SYMBOL], for example: symbol=AAPL
        </div>{{end}}`

var (
	validationTemplate = template.Must(template.Must(template.New("base").Parse(baseLayout)).Parse(validationContent))
	apiKeyTemplate     = template.Must(template.Must(template.New("base").Parse(baseLayout)).Parse(apiKeyContent))
)

// ValidationParams holds the values of the email validation message.
type ValidationParams struct {
	ApplicationName string
	Name            string
	ValidationURL   string
	ExpiresIn       string
}

// APIKeyParams holds the values of the API key message.
type APIKeyParams struct {
	ApplicationName string
	Name            string
	APIKey          string
	HeaderName      string
	RequestURL      string
}

// RenderValidation returns the subject and HTML body of the validation mail.
func RenderValidation(p ValidationParams) (subject, body string, err error) {
	body, err = render(validationTemplate, p)
	if err != nil {
		return "", "", fmt.Errorf("render validation mail: %w", err)
	}
	return p.ApplicationName + " email validation", body, nil
}

// RenderAPIKey returns the subject and HTML body of the API key mail.
func RenderAPIKey(p APIKeyParams) (subject, body string, err error) {
	body, err = render(apiKeyTemplate, p)
	if err != nil {
		return "", "", fmt.Errorf("render api key mail: %w", err)
	}
	return p.ApplicationName + " api key", body, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
