package commands

const (
	_var = "/usr/local/var/com.github.uhppoted"

	DEFAULT_WORKDIR = _var + "/sheets-inventory"
)
