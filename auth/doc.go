/*
Package auth contains the credential primitives: password hashing, confirmation codes and the username charset.
It does not know about storage. The CoreDB combines these primitives with the AccountDB.

# Registration

A registration creates an account with a confirmation code. The code is mailed to the user.
Presenting the username together with the code clears it. An account can not log in while its code is set.

# Passwords

Passwords are hashed with bcrypt, which salts every hash individually.
*/
package auth
