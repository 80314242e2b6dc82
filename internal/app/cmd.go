package app

// Command はwellbeatバイナリの起動モードを表す。
// 同一イメージをapi/worker/migrateの各コンテナで使い回すため、
// モードはコマンドライン引数で切り替える。
type Command string

const (
	// CommandServe はウェルネスAPIサーバーとして起動する。
	CommandServe Command = "serve"
	// CommandWorker は日次スコアリングワーカーとして起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中のAPIサーバーに対するヘルスチェックを行う。
	// シェルを持たないdistrolessイメージのDocker HEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数なし・未知のコマンドはいずれもserveにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker:
		return CommandWorker
	case CommandMigrate:
		return CommandMigrate
	case CommandHealthcheck:
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
