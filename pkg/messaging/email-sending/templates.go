package emailsending

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

const passwordResetSubject = "Reset your password"

const passwordResetTemplateDef = `<html>
<body>
<p>Hi {{.displayName}},</p>
<p>We received a request to reset the password of your account.</p>
<p><a href="{{.resetURL}}">Click here to choose a new password.</a></p>
<p>The link is valid for {{.validMinutes}} minutes. If you did not request this, you can ignore this message.</p>
</body>
</html>`

func ResolveTemplate(tempName string, templateDef string, contentInfos map[string]string) (content string, err error) {
	if strings.TrimSpace(templateDef) == "" {
		return "", errors.New("empty template " + tempName)
	}
	tmpl, err := template.New(tempName).Parse(templateDef)
	if err != nil {
		err = fmt.Errorf("error when parsing template %s: %v", tempName, err)
		return "", err
	}
	var tpl bytes.Buffer

	err = tmpl.Execute(&tpl, contentInfos)
	if err != nil {
		err = fmt.Errorf("error during executing template %s: %v", tempName, err)
		return "", err
	}
	return tpl.String(), nil
}
