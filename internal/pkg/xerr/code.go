package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode    = 40000 // 无效的请求参数
	ValidationFailedCode = 40001 // 参数验证失败
	FilePathRequiredCode = 40002 // 缺少文件路径
	FilePathInvalidCode  = 40003 // 文件路径非法

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode        = 40400 // 通用资源未找到
	DatasetNotFoundCode = 40401 // 数据集不存在
	FileNotFoundCode    = 40402 // 文件不存在

	// --- 服务端错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部错误
	DatabaseErrorCode       = 50001 // 数据库错误
	StorageErrorCode        = 50002 // 对象存储错误
	MQErrorCode             = 50003 // 消息队列错误
	SearchErrorCode         = 50004 // 搜索服务错误
	PreviewFailedCode       = 50005 // 预览读取失败
)
