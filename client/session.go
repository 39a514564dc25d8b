package client

import "context"

// State is the session controller's view of the application
type State int

const (
	// StateLoading holds until the initial session check resolves
	StateLoading State = iota
	// StateAuthenticated renders the dashboard
	StateAuthenticated
	// StateShowingLogin is the default unauthenticated branch
	StateShowingLogin
	// StateShowingSignup is entered only by an explicit toggle
	StateShowingSignup
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateShowingLogin:
		return "showing-login"
	case StateShowingSignup:
		return "showing-signup"
	default:
		return "unknown"
	}
}

// SessionController drives the login/signup/dashboard flow over the API.
// It is event-driven and single-threaded: one goroutine owns it, calls
// arrive from UI events and resolved network calls.
type SessionController struct {
	api   *Client
	state State
}

// NewSessionController creates a controller in the Loading state
func NewSessionController(api *Client) *SessionController {
	return &SessionController{
		api:   api,
		state: StateLoading,
	}
}

// State returns the current state
func (sc *SessionController) State() State {
	return sc.state
}

// Start performs the initial session check. Any failure lands on the login
// screen; there is no automatic retry.
func (sc *SessionController) Start(ctx context.Context) State {
	if err := sc.api.CheckSession(ctx); err != nil {
		sc.state = StateShowingLogin
		return sc.state
	}

	sc.state = StateAuthenticated
	return sc.state
}

// ShowSignup toggles to the signup screen; a no-op outside the
// unauthenticated branch
func (sc *SessionController) ShowSignup() {
	if sc.state == StateShowingLogin {
		sc.state = StateShowingSignup
	}
}

// ShowLogin toggles back to the login screen
func (sc *SessionController) ShowLogin() {
	if sc.state == StateShowingSignup {
		sc.state = StateShowingLogin
	}
}

// Login submits credentials. Success transitions straight to Authenticated,
// trusting the mutation's own response over a fresh session check. Failure
// keeps the current screen and surfaces the server's message.
func (sc *SessionController) Login(ctx context.Context, email, password string) error {
	if err := sc.api.Login(ctx, email, password); err != nil {
		return err
	}

	sc.state = StateAuthenticated
	return nil
}

// Signup submits new credentials, with the same optimistic transition
func (sc *SessionController) Signup(ctx context.Context, email, password string) error {
	if err := sc.api.Signup(ctx, email, password); err != nil {
		return err
	}

	sc.state = StateAuthenticated
	return nil
}

// Logout deletes the session and returns to the login screen
func (sc *SessionController) Logout(ctx context.Context) error {
	if err := sc.api.Logout(ctx); err != nil {
		return err
	}

	sc.state = StateShowingLogin
	return nil
}
