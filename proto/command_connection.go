package proto

type logonParams struct {
	User     string `json:"User"`
	Password string `json:"Password"`
}

// ConnectionLogon authenticates the session against an access-controlled design.
func ConnectionLogon(id int64, user, password string) Command {
	return Command{Method: "Logon", ID: ref(id), Params: logonParams{User: user, Password: password}}
}

// ConnectionNoOp is the keep-alive notification. It carries no id and no
// params; the device never answers it.
func ConnectionNoOp() Command {
	return Command{Method: "NoOp"}
}
