package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"go-blog-app/internal/auth"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/session"
	"io"
	"mime"
	"net/http"

	"github.com/casbin/casbin/v2"
)

// Header carrying the raw admin secret.
const AdminPasswordHeader = "X-Admin-Password"

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// Authorizer creates a new middleware for authorization.
// It resolves the caller's credential, decides whether it is the admin and
// checks the route against the casbin policies for that subject.
func Authorizer(e casbin.IEnforcer, admin *auth.Admin, sm session.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, err := credentialFrom(r, sm)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					WriteJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: "Request body too large"})
					return
				}
				WriteJSON(w, http.StatusBadRequest, errorBody{Message: "Malformed request body"})
				return
			}

			userInfo := &UserInfo{Subject: auth.SubjectAnonymous, Credential: cred}
			if admin.Authorized(cred) {
				userInfo.Subject = auth.SubjectAdmin
				userInfo.IsAdmin = true
			}
			r = r.WithContext(SetUserInfo(r.Context(), userInfo))

			allowed, err := e.Enforce(userInfo.Subject, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Authorization error")
				WriteJSON(w, http.StatusInternalServerError, errorBody{Message: "Authorization error"})
				return
			}
			if !allowed {
				WriteJSON(w, http.StatusForbidden, errorBody{Message: "Unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// credentialFrom collects the header, body password, signed-URL query
// parameter and session flag. A JSON body is restored after reading so
// handlers can decode it again; multipart forms stay parsed on r.
func credentialFrom(r *http.Request, sm session.Manager) (auth.Credential, error) {
	cred := auth.Credential{
		Password:  r.Header.Get(AdminPasswordHeader),
		Signature: r.URL.Query().Get("password"),
		Session:   session.IsAdmin(r.Context(), sm),
	}
	if cred.Password != "" || r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return cred, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return cred, err
		}
		r.Body = io.NopCloser(bytes.NewReader(b))
		var body struct {
			Password string `json:"password"`
		}
		// Malformed JSON is the handler's problem to report.
		if json.Unmarshal(b, &body) == nil {
			cred.Password = body.Password
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return cred, err
		}
		cred.Password = r.FormValue("password")
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return cred, err
		}
		cred.Password = r.PostFormValue("password")
	}
	return cred, nil
}
