// Package forge 负责把磁盘上的 forge 目录索引为只读的内存树。
//
// 目录树的构建规则：
//  1. 每个目录可以放置一个 forge.toml，缺失或解析失败时按默认值处理；
//  2. parented = true 的目录不会形成自己的节点，其子目录与文件直接并入父目录；
//  3. hidden = true 只影响列表展示，被隐藏的文件仍然可以按完整路径直接访问；
//  4. 文件的 Content-Type 优先取目录配置，否则按扩展名推断。
//
// 本包不持有锁，也不做缓存；并发控制与缓存由 internal/store 负责。
package forge
