package service

import "github.com/d60-Lab/invitefeed/pkg/apperror"

var (
    ErrMissingFields    = apperror.Validation(apperror.CodeMissingFields, "All fields are required.")
    ErrMissingLogin     = apperror.Validation(apperror.CodeMissingFields, "Email and password are required")
    ErrDuplicateUser    = apperror.Conflict(apperror.CodeDuplicateUser, "Username or email already exists.")
    ErrBadCredentials   = apperror.Unauthorized(apperror.CodeBadCredentials, "Invalid credentials")
    ErrInviteNotFound   = apperror.NotFound(apperror.CodeInviteNotFound, "Invalid invite")
    ErrInviteUsed       = apperror.Conflict(apperror.CodeInviteUsed, "Invite already used")
    ErrSelfFollow       = apperror.Conflict(apperror.CodeSelfFollow, "Cannot follow yourself")
    ErrAlreadyFollowing = apperror.Conflict(apperror.CodeAlreadyFollowing, "Already following this user")
    ErrNotFollowing     = apperror.NotFound(apperror.CodeNotFollowing, "You are not following anyone.")
    ErrUserNotFound     = apperror.NotFound(apperror.CodeUserNotFound, "User not found")
    ErrInvalidPostBody  = apperror.Validation(apperror.CodeInvalidInput, "post body must be 1-1000 characters")
)
