package sdk

// Version is the published SDK version.
// 0.3.0: Breaking - RedirectOnUnauthorized is an explicit Config flag with an
// OnUnauthorized hook; local credential clearing on 401 stays unconditional.
// 0.2.0: Add FileTokenStore, mobile PIN login, and the two-factor OTP step.
const Version = "0.3.0"
