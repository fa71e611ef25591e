package usecase

// テスト用にインメモリリポジトリを外部テストパッケージへ公開します。
type MemUserRepository = memUserRepository

var NewMemUserRepository = newMemUserRepository
