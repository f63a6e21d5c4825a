package apihandlers

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mw "github.com/clipshare/account-backend/pkg/apihelpers/middlewares"
)

// randomWait delays failure responses on credential checks, so timing
// does not reveal which check rejected the request.
func randomWait(minMs int, maxMs int) {
	time.Sleep(time.Duration(minMs+rand.Intn(maxMs-minMs+1)) * time.Millisecond)
}

func (h *HttpEndpoints) setAuthCookies(c *gin.Context, accessToken string, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(mw.AccessTokenCookieName, accessToken, int(h.ttls.AccessToken.Seconds()), "/", "", h.useSecureCookies, true)
	if refreshToken != "" {
		c.SetCookie(mw.RefreshTokenCookieName, refreshToken, int(h.ttls.RefreshToken.Seconds()), "/", "", h.useSecureCookies, true)
	}
}

func (h *HttpEndpoints) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(mw.AccessTokenCookieName, "", -1, "/", "", h.useSecureCookies, true)
	c.SetCookie(mw.RefreshTokenCookieName, "", -1, "/", "", h.useSecureCookies, true)
}

// stageUploadedFile copies the multipart upload into the local
// filestore, where the avatar store picks it up.
func (h *HttpEndpoints) stageUploadedFile(c *gin.Context, filename string) (string, error) {
	ext := filepath.Ext(filename)
	localPath := filepath.Join(h.filestorePath, fmt.Sprintf("%v%s", uuid.New(), ext))

	file, err := c.FormFile("avatar")
	if err != nil {
		return "", err
	}
	if err := c.SaveUploadedFile(file, localPath); err != nil {
		// remove partial file, upload must not leave anything staged
		_ = os.Remove(localPath)
		return "", err
	}
	return localPath, nil
}

func (h *HttpEndpoints) resetURLForToken(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", h.clientBaseURL, token)
}
